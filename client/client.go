package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concord/internal"
	"concord/ws"

	"github.com/Netflix/go-env"
	json "github.com/goccy/go-json"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:4000/ws"`
	Token     string `env:"CHAT_TOKEN,required=true"`
	ChannelID int64  `env:"CHAT_CHANNEL_ID,default=1"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the connection lifecycle: dial with the bearer token, join
// the configured channel, then print incoming messages while forwarding
// stdin lines as sends.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := internal.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := config.ServerURL + "?token=" + config.Token
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err := writeFrame(conn, ws.ClientFrame{Type: ws.FrameJoinChannel, ChannelID: config.ChannelID}); err != nil {
		return exitRuntime, fmt.Errorf("failed to join channel: %w", err)
	}

	color.Green.Printf(">>> Connected to %s! Listening channel %d (Ctrl+C to quit)...\n",
		config.ServerURL, config.ChannelID)

	// Stdin lines become send_message frames.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			frame := ws.ClientFrame{
				Type:      ws.FrameSendMessage,
				ChannelID: config.ChannelID,
				Text:      scanner.Text(),
			}
			if err := writeFrame(conn, frame); err != nil {
				return
			}
		}
	}()

	// Close the connection when the user hits Ctrl+C so the read loop
	// unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	// Message reception loop.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Stopping client...")
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		}

		var frame ws.ServerFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Warn("Dropping unreadable frame", "error", err)
			continue
		}

		switch frame.Type {
		case ws.FrameMessage:
			msg := frame.Message
			color.Cyan.Printf("[%s] ", time.UnixMilli(msg.Ts).Format(time.TimeOnly))
			color.Yellow.Printf("%s: ", msg.AuthorName)
			fmt.Println(msg.Text)
		case ws.FrameError:
			color.Red.Printf("!! %s\n", frame.Error)
		}
	}
}

func writeFrame(conn *websocket.Conn, frame ws.ClientFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

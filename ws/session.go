package ws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"concord/domain"
	"concord/domain/event"
	"concord/services"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// State is the lifecycle of one connection. Connecting becomes Active
// only through a successful authentication; nothing leaves Closed.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Session wraps one authenticated live connection and its channel
// subscriptions. Frames are processed one at a time on the read pump, so
// the subscription set never tears even while other connections' events
// interleave.
type Session struct {
	id       string
	conn     *websocket.Conn
	sink     *Sink
	chat     services.IChatService
	log      *slog.Logger
	mu       sync.Mutex
	state    State
	user     domain.User
	channels map[domain.ChannelID]struct{}
	teardown sync.Once
}

func newSession(id string, conn *websocket.Conn, chat services.IChatService,
	bufferSize int, log *slog.Logger) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		sink:     NewSink(bufferSize),
		chat:     chat,
		log:      log,
		state:    StateConnecting,
		channels: make(map[domain.ChannelID]struct{}),
	}
}

// activate transitions Connecting -> Active with the identity resolved
// from the verified credential. That identity is trusted for every
// subsequent action on this connection.
func (s *Session) activate(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return
	}
	s.user = user
	s.state = StateActive
}

// refuse transitions Connecting -> Closed before any protocol exchange,
// carrying the distinguishable reason to the client in the close frame.
func (s *Session) refuse(reason string) {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, message, deadline)
	_ = s.conn.Close()
}

// run drives both pumps and returns when the connection is gone.
func (s *Session) run(ctx context.Context) {
	go s.writePump(ctx)
	s.readPump(ctx)
}

func (s *Session) readPump(ctx context.Context) {
	defer s.disconnect()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Unexpected close", "user", s.user.Username, "error", err)
			}
			return
		}
		s.handleFrame(ctx, raw)
	}
}

func (s *Session) handleFrame(ctx context.Context, raw []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.log.Debug("Dropping malformed frame", "user", s.user.Username, "error", err)
		return
	}
	if err := frame.Validate(); err != nil {
		s.log.Debug("Dropping invalid frame", "user", s.user.Username, "error", err)
		return
	}

	switch frame.Type {
	case FrameJoinChannel:
		s.join(domain.ChannelID(frame.ChannelID))
	case FrameLeaveChannel:
		s.leave(domain.ChannelID(frame.ChannelID))
	case FrameSendMessage:
		s.send(ctx, domain.ChannelID(frame.ChannelID), frame.Text)
	}
}

// join is idempotent: a channel already in the subscription set is a
// no-op. The channel is not checked against the directory; joining an
// unknown id succeeds and simply never receives messages.
func (s *Session) join(channelID domain.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || channelID == 0 {
		return
	}
	if _, ok := s.channels[channelID]; ok {
		return
	}
	s.chat.Join(s.id, channelID, s.sink)
	s.channels[channelID] = struct{}{}
	s.log.Info(fmt.Sprintf("User %s joined channel %d", s.user.Username, channelID))
}

// leave is idempotent: removing an absent channel is a no-op.
func (s *Session) leave(channelID domain.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	if _, ok := s.channels[channelID]; !ok {
		return
	}
	s.chat.Leave(s.id, channelID)
	delete(s.channels, channelID)
}

// send submits a message on behalf of this session's trusted identity.
// Rejections come back as an error frame to this session only; accepted
// messages return through the broadcast path, sender included.
func (s *Session) send(ctx context.Context, channelID domain.ChannelID, text string) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	user := s.user
	s.mu.Unlock()

	if err := s.chat.Send(s.sink, user, channelID, text); err != nil {
		_ = s.sink.Consume(ctx, event.SendFailed{Channel: channelID, Reason: err.Error()})
	}
}

// disconnect is the only path that destroys a session. Safe to invoke
// more than once; transports signal loss redundantly.
func (s *Session) disconnect() {
	s.teardown.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.channels = make(map[domain.ChannelID]struct{})
		s.mu.Unlock()

		s.chat.Disconnect(s.id)
		_ = s.conn.Close()
		s.log.Info(fmt.Sprintf("User %s disconnected", s.user.Username))
	})
}

func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.disconnect()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.sink.Events():
			if !s.writeEvent(evt) {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) writeEvent(evt event.DomainEvent) bool {
	var frame ServerFrame
	switch e := evt.(type) {
	case event.MessageStored:
		frame = messageFrame(e)
	case event.SendFailed:
		frame = errorFrame(e.Reason)
	default:
		return true
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("Failed to encode frame", "user", s.user.Username, "error", err)
		return true
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.log.Debug("Write failed, dropping connection", "user", s.user.Username, "error", err)
		return false
	}
	return true
}

package main

import "time"

type Config struct {
	Host                  string        `env:"HOST,default=localhost"`
	Port                  int           `env:"PORT,default=4000"`
	JWTSecret             string        `env:"JWT_SECRET,required=true"`
	TokenDuration         time.Duration `env:"TOKEN_DURATION,default=168h"`
	AuthTimeout           time.Duration `env:"AUTH_TIMEOUT,default=10s"`
	BadgerFilepath        string        `env:"BADGER_FILEPATH,required=true"`
	HistoryLimit          int           `env:"HISTORY_LIMIT,default=1000"`
	BufferSize            int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize  int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout           time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval       time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	LogLevel              string        `env:"LOG_LEVEL,default=info"`
	UploadDir             string        `env:"UPLOAD_DIR,default=public/uploads"`
	StaticDir             string        `env:"STATIC_DIR,default=public"`
	CensoredWords         string        `env:"CENSORED_WORDS"`
	ModerationReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}

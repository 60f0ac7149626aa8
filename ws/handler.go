// Package ws carries the real-time protocol: one authenticated WebSocket
// per client, join/leave/send frames in, message frames out.
package ws

import (
	"context"
	goerrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"concord/auth"
	"concord/errors"
	"concord/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests into chat sessions. The bearer
// credential travels in connection-establishment metadata (query
// parameter or Authorization header), never in a protocol frame.
type Handler struct {
	identity    auth.IdentityProvider
	chat        services.IChatService
	bufferSize  int
	authTimeout time.Duration
	log         *slog.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(identity auth.IdentityProvider, chat services.IChatService,
	bufferSize int, authTimeout time.Duration, log *slog.Logger) *Handler {
	return &Handler{
		identity:    identity,
		chat:        chat,
		bufferSize:  bufferSize,
		authTimeout: authTimeout,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser UI is served from arbitrary origins in dev;
			// auth is the bearer token, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := newSession(uuid.NewString(), conn, h.chat, h.bufferSize, h.log)

	// Authentication is bounded: a verification that never completes
	// must not hang the connection in Connecting forever.
	authCtx, cancel := context.WithTimeout(r.Context(), h.authTimeout)
	user, err := h.identity.Verify(authCtx, bearerToken(r))
	cancel()
	if err != nil {
		reason := errors.ErrInvalidToken.Error()
		if goerrors.Is(err, errors.ErrNoToken) {
			reason = errors.ErrNoToken.Error()
		}
		h.log.Info("Connection refused", "remote", r.RemoteAddr, "reason", reason)
		session.refuse(reason)
		return
	}

	session.activate(user)
	h.log.Info("User connected", "user", user.Username, "remote", r.RemoteAddr)
	session.run(r.Context())
}

// bearerToken extracts the credential from the upgrade request.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

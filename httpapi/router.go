// Package httpapi is the ordinary request/response surface around the
// chat core: accounts, the server/channel directory, message history,
// uploads and static hosting.
package httpapi

import (
	"log/slog"
	"net/http"

	"concord/services"
	"concord/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	auth      services.IAuthService
	directory services.IDirectoryService
	chat      services.IChatService
	uploads   *storage.DiskStore
	staticDir string
	log       *slog.Logger
}

func NewAPI(auth services.IAuthService, directory services.IDirectoryService,
	chat services.IChatService, uploads *storage.DiskStore, staticDir string,
	log *slog.Logger) *API {
	return &API{
		auth:      auth,
		directory: directory,
		chat:      chat,
		uploads:   uploads,
		staticDir: staticDir,
		log:       log,
	}
}

// Router mounts the REST surface, the websocket upgrade endpoint and the
// metrics handler.
func (a *API) Router(wsHandler http.Handler, metrics prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)

		r.Get("/servers", a.handleListServers)
		r.Post("/servers", a.handleCreateServer)
		r.Get("/servers/{id}/channels", a.handleListChannels)
		r.Post("/channels", a.handleCreateChannel)
		r.Get("/channels/{id}/messages", a.handleHistory)

		r.Post("/upload", a.handleUpload)
	})

	r.Handle("/ws", wsHandler)
	r.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))

	fileServer := http.FileServer(http.Dir(a.staticDir))
	r.Handle("/*", fileServer)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.uploads.Dir()))))

	return r
}

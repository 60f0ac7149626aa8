package httpapi

import (
	"net/http"
	"strconv"

	"concord/domain"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type serverResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

type channelResponse struct {
	ID       int64  `json:"id"`
	ServerID int64  `json:"server_id"`
	Name     string `json:"name"`
}

func (a *API) handleListServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := a.directory.ListServers()
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, lo.Map(servers, func(s domain.Server, _ int) serverResponse {
		return toServerResponse(s)
	}))
}

func (a *API) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	server, err := a.directory.CreateServer(req.Name)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, toServerResponse(server))
}

func (a *API) handleListChannels(w http.ResponseWriter, r *http.Request) {
	serverID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid server id", http.StatusBadRequest)
		return
	}

	channels, err := a.directory.ListChannels(serverID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, lo.Map(channels, func(c domain.Channel, _ int) channelResponse {
		return toChannelResponse(c)
	}))
}

func (a *API) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServerID int64  `json:"serverId"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	channel, err := a.directory.CreateChannel(req.ServerID, req.Name)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, toChannelResponse(channel))
}

func toServerResponse(s domain.Server) serverResponse {
	return serverResponse{ID: s.ID, Name: s.Name, InviteCode: s.InviteCode}
}

func toChannelResponse(c domain.Channel) channelResponse {
	return channelResponse{ID: int64(c.ID), ServerID: c.ServerID, Name: c.Name}
}

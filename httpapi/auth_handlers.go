package httpapi

import (
	"net/http"

	"concord/domain"
	"concord/services"
)

type credentialsRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "username+password required", http.StatusBadRequest)
		return
	}

	token, user, err := a.auth.Register(req.Username, req.Password, req.DisplayName)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, toAuthResponse(token, user))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "username+password required", http.StatusBadRequest)
		return
	}

	token, user, err := a.auth.Login(req.Username, req.Password)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, toAuthResponse(token, user))
}

func toAuthResponse(token services.Token, user domain.User) authResponse {
	return authResponse{
		Token: string(token),
		User: userResponse{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
		},
	}
}

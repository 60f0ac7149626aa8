package httpapi

import (
	"net/http"

	"concord/errors"

	json "github.com/goccy/go-json"
)

func (a *API) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Debug("Response encoding failed", "error", err)
	}
}

func (a *API) respondError(w http.ResponseWriter, err error) {
	a.respondJSON(w, errors.MapToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

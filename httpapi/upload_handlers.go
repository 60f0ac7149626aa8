package httpapi

import (
	"fmt"
	"io"
	"net/http"
)

const maxUploadSize = 32 << 20 // 32 MB

// handleUpload stores one multipart file and returns its relative URL.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	name, err := a.uploads.Save(data)
	if err != nil {
		a.log.Error("Upload rejected", "error", err)
		http.Error(w, "write failed", http.StatusInternalServerError)
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]string{
		"url": fmt.Sprintf("/uploads/%s", name),
	})
}

package handler

import "net/http"

// HandleHealth reports that the process is up.
//
// HTTP: GET /health
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRoot answers the bare root URL with a status message.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ChatBet API is running"})
}

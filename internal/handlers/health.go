package handlers

import (
	"net/http"

	"github.com/logward/logward/internal/httputil"
)

// HandleHealthz reports process liveness.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleHello is the unauthenticated probe kept for log shippers that test
// connectivity before sending.
func HandleHello(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "hello"})
}

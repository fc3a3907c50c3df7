package server

import (
	"net/http"

	"github.com/ritik9294/catalog-assistant-v3/internal/gateway/handler"
	"github.com/ritik9294/catalog-assistant-v3/internal/gateway/middleware"
)

func NewMux(sessions *handler.SessionHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/session", sessions.HandleCreate)
	mux.HandleFunc("DELETE /api/session/{id}", sessions.HandleDelete)
	mux.HandleFunc("GET /api/session/{id}/view", sessions.HandleView)
	mux.HandleFunc("POST /api/session/{id}/image", sessions.HandleUpload)
	mux.HandleFunc("POST /api/session/{id}/event", sessions.HandleEvent)
	mux.HandleFunc("GET /api/session/{id}/usage", sessions.HandleUsage)
	mux.HandleFunc("POST /api/session/{id}/usage/reset", sessions.HandleUsageReset)
	mux.HandleFunc("GET /api/session/{id}/enhanced", sessions.HandleEnhancedImage)
	mux.HandleFunc("GET /api/session/{id}/download", sessions.HandleDownload)
	mux.HandleFunc("POST /api/session/{id}/export", sessions.HandleExport)

	mux.HandleFunc("GET /api/session/ws", sessions.HandleWS)

	return middleware.CORS(mux)
}

package server

import (
	"net/http"

	"readmegen/internal/gateway/handler"
	"readmegen/internal/gateway/middleware"
)

func NewMux(readmeHandler *handler.ReadmeHandler, traceHandler *handler.TraceHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", readmeHandler.HandleHome)
	mux.HandleFunc("/generate-readme", readmeHandler.HandleGenerate)
	mux.HandleFunc("/ws/generate", readmeHandler.HandleGenerateWS)

	// Debug Handlers
	mux.HandleFunc("/debug/run-logs", traceHandler.HandleRunLogs)
	mux.HandleFunc("/debug/runs", traceHandler.HandleRuns)
	mux.HandleFunc("/debug/artifacts", traceHandler.HandleArtifacts)

	return middleware.CORS(mux)
}

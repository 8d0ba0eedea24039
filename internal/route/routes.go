package route

import (
	"net/http"
	"os"
	"path/filepath"

	"violencedetector/internal/config"
	"violencedetector/internal/handler"
	"violencedetector/internal/logger"
	"violencedetector/internal/middleware"
	"violencedetector/internal/repository"
	"violencedetector/internal/service/websocket"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StaticDirectory holds the HTML pages and assets of the web UI.
const StaticDirectory = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDirectory, filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, analyzer handler.Analyzer,
	analyses repository.AnalysisRepository, predictions repository.PredictionRepository,
	hub *websocket.HubService) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDirectory))))

	// API endpoints
	mux.HandleFunc("/api/analyze", handler.AnalyzeHandler(analyzer, cfg, logger))
	mux.HandleFunc("/api/analyses", handler.GetAnalysesHandler(analyses, logger))
	mux.HandleFunc("/api/analyses/get", handler.GetAnalysisHandler(analyses, predictions, logger))
	mux.HandleFunc("/api/analyses/stats", handler.GetStatsHandler(analyses, logger))
	mux.HandleFunc("/api/analyses/video", handler.AnalysisVideoHandler(analyses, logger))
	mux.HandleFunc("/api/analyses/delete", handler.DeleteAnalysisHandler(analyses, logger))
	mux.HandleFunc("/api/progress", handler.ProgressWebsocketHandler(hub, logger))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	mux.Handle("/metrics", promhttp.Handler())

	// Automatic HTML handler mapping for example: /history -> /static/history.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.AuthMiddleware(mux)
}

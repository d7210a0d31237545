package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/audiolibrelab/barscope/internal/config"
	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/service"
)

// Server represents the web server for controlling barscope
type Server struct {
	service service.Service
	cfg     *config.Config
	port    string
	surface *render.ImageSurface

	// ctx bounds background work started by handlers, such as previews.
	ctx context.Context
}

// StatusResponse represents the JSON response for status endpoint
type StatusResponse struct {
	service.Status
	FPS    int `json:"fps"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// New creates a new web server instance
func New(cfg *config.Config, svc service.Service) *Server {
	return &Server{
		service: svc,
		cfg:     cfg,
		port:    cfg.Server.Port,
		surface: render.NewImageSurface(cfg.Visualizer.Width, cfg.Visualizer.Height),
		ctx:     context.Background(),
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/abort", s.handleAbort)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/canvas.png", s.handleCanvas)
	mux.HandleFunc("/api/recording", s.handleRecording)
	mux.HandleFunc("/api/preview", s.handlePreview)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	localIP := getLocalIP()
	slog.Info("Starting barscope web server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.service.AbortRecording()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		slog.Info("Web server stopped")
		return nil
	}
}

// handleIndex serves the control page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, indexHTML, s.cfg.Visualizer.Width, s.cfg.Visualizer.Height)
}

// handleStart begins a recording drawing onto the shared canvas
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	slog.Info("Server: start requested")
	s.service.StartRecording(s.surface)
	s.sendStateResponse(w, "Start requested")
}

// handleStop finalizes the current recording
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	slog.Info("Server: stop requested")
	s.service.StopRecording()
	s.sendStateResponse(w, "Stop requested")
}

// handleAbort drops the current recording
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	slog.Info("Server: abort requested")
	s.service.AbortRecording()
	s.sendStateResponse(w, "Recording aborted")
}

// handleStatus returns the current state and elapsed time
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	width, height := s.surface.Box()
	response := StatusResponse{
		Status: s.service.GetRecordingStatus(),
		FPS:    s.cfg.Visualizer.FPS,
		Width:  width,
		Height: height,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleEvents streams service events as Server-Sent Events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported", "operation", "events")
		return
	}

	ch := make(chan service.Event, 32)
	unsubscribe := s.service.Subscribe(func(e service.Event) {
		select {
		case ch <- e:
		default:
			slog.Warn("Dropping event for slow client", "type", e.Type)
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	slog.Debug("Event stream opened", "remote", r.RemoteAddr)
	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Event stream closed", "remote", r.RemoteAddr)
			return
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("Failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}

// handleCanvas serves the bar graph as a PNG
func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.surface.WritePNG(w); err != nil {
		slog.Error("Error serving canvas", "error", err)
	}
}

// handleRecording downloads the last finished clip
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	out, ok := s.service.LastRecording()
	if !ok {
		s.sendErrorResponse(w, http.StatusNotFound, "No recording available", "operation", "download")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", out.Title))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(out.Blob)))
	if _, err := w.Write(out.Blob); err != nil {
		slog.Error("Error serving recording download", "title", out.Title, "error", err)
	}
}

// handlePreview plays the last clip on the server's speakers
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	out, ok := s.service.LastRecording()
	if !ok {
		s.sendErrorResponse(w, http.StatusNotFound, "No recording available", "operation", "preview")
		return
	}

	go func() {
		if err := s.service.Preview(s.ctx); err != nil {
			slog.Error("Preview failed", "title", out.Title, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Preview started",
		"title":   out.Title,
	})
}

func (s *Server) sendStateResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": message,
		"state":   s.service.GetRecordingStatus().State,
	})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   "Method not allowed",
	})
	return false
}

// sendErrorResponse logs the error and sends a JSON error body
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string, logContext ...interface{}) {
	logFields := []interface{}{"error_message", errorMsg, "status_code", statusCode}
	if len(logContext) > 0 {
		logFields = append(logFields, logContext...)
	}
	slog.Error("Sending error response to client", logFields...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errorMsg,
	})
}

func getLocalIP() string {
	// Dialing UDP sends nothing; it only picks the outbound interface.
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

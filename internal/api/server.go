package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jaywantadh/RelayByte/config"
	"github.com/jaywantadh/RelayByte/internal/history"
	"github.com/jaywantadh/RelayByte/internal/session"
	"github.com/jaywantadh/RelayByte/internal/ws"
	"github.com/jaywantadh/RelayByte/pkg/logging"
)

// Server is the HTTP surface: websocket endpoint, health, session
// snapshots, transfer history, and the static client.
type Server struct {
	cfg     *config.AppConfig
	reg     *session.Registry
	hist    *history.Store // nil disables /api/history content
	hub     *ws.Hub
	started time.Time
	httpSrv *http.Server
}

func NewServer(cfg *config.AppConfig, reg *session.Registry, hist *history.Store, hub *ws.Hub) *Server {
	return &Server{
		cfg:     cfg,
		reg:     reg,
		hist:    hist,
		hub:     hub,
		started: time.Now(),
	}
}

// Handler builds the route table wrapped in CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.HandleWS)
	}
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/transfer/", s.handleTransferSnapshot)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.PublicDir)))

	return s.cors(mux)
}

// Start runs the HTTP server until it stops.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status            string    `json:"status"`
	Uptime            float64   `json:"uptime"`
	ActiveSessions    int       `json:"activeSessions"`
	ActiveConnections int       `json:"activeConnections"`
	Timestamp         time.Time `json:"timestamp"`
	Limits            Limits    `json:"limits"`
}

// Limits echoes the informational transfer limits; none are enforced here.
type Limits struct {
	ChunkSize     int   `json:"chunkSize"`
	MaxFileSize   int64 `json:"maxFileSize"`
	MaxBufferSize int64 `json:"maxBufferSize"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}
	WriteJSONResponse(w, http.StatusOK, HealthResponse{
		Status:            "ok",
		Uptime:            time.Since(s.started).Seconds(),
		ActiveSessions:    s.reg.SessionCount(),
		ActiveConnections: s.reg.ConnectionCount(),
		Timestamp:         time.Now(),
		Limits: Limits{
			ChunkSize:     s.cfg.ChunkSize,
			MaxFileSize:   s.cfg.MaxFileSize,
			MaxBufferSize: s.cfg.MaxBufferSize,
		},
	})
}

// TransferSnapshotResponse is the GET /api/transfer/{id} payload.
type TransferSnapshotResponse struct {
	TransferID     string            `json:"transferId"`
	Status         session.Status    `json:"status"`
	FileInfo       *session.FileInfo `json:"fileInfo,omitempty"`
	ChunksReceived int               `json:"chunksReceived"`
	TotalChunks    int               `json:"totalChunks"`
	HasSender      bool              `json:"hasSender"`
	HasReceiver    bool              `json:"hasReceiver"`
	StartTime      time.Time         `json:"startTime"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
}

func (s *Server) handleTransferSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	transferID := strings.TrimPrefix(r.URL.Path, "/api/transfer/")
	if transferID == "" || strings.Contains(transferID, "/") {
		WriteErrorResponse(w, http.StatusNotFound, "session not found", "SESSION_NOT_FOUND")
		return
	}

	sess, ok := s.reg.Session(transferID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "session not found", "SESSION_NOT_FOUND")
		return
	}

	snap := sess.Snapshot()
	resp := TransferSnapshotResponse{
		TransferID:     snap.TransferID,
		Status:         snap.Status,
		FileInfo:       snap.FileInfo,
		ChunksReceived: snap.ChunksReceived,
		TotalChunks:    snap.TotalChunks,
		HasSender:      snap.Sender != "",
		HasReceiver:    snap.Receiver != "",
		StartTime:      snap.StartTime,
	}
	if !snap.CompletedAt.IsZero() {
		completed := snap.CompletedAt
		resp.CompletedAt = &completed
	}
	WriteJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	recs := []history.Record{}
	if s.hist != nil {
		var err error
		recs, err = s.hist.Recent(limit)
		if err != nil {
			logging.Log.WithError(err).Warn("could not read transfer history")
			WriteErrorResponse(w, http.StatusInternalServerError, "history unavailable", "HISTORY_ERROR")
			return
		}
		if recs == nil {
			recs = []history.Record{}
		}
	}
	WriteJSONResponse(w, http.StatusOK, recs)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the JSON error body for the HTTP surface.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Response helpers
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

func WriteErrorResponse(w http.ResponseWriter, statusCode int, errorMsg, code string) {
	WriteJSONResponse(w, statusCode, ErrorResponse{Error: errorMsg, Code: code})
}

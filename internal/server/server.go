// Package server exposes the editor over HTTP: the page, a JSON API, exports
// and the live WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/copyfeedback"
	"github.com/matnoble/mdeditor/internal/export"
	"github.com/matnoble/mdeditor/internal/page"
	"github.com/matnoble/mdeditor/internal/pdf"
	"github.com/matnoble/mdeditor/internal/session"
	"github.com/matnoble/mdeditor/internal/theme"
)

// MaxSnapshotBytes bounds a posted page snapshot.
const MaxSnapshotBytes = 16 << 20

// requestTimeout bounds every request except the WebSocket.
const requestTimeout = 60 * time.Second

// Config holds server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string // extra CORS and WebSocket origins besides localhost
	Verbose        bool     // log every request
	Clipboard      copyfeedback.Clipboard
	PDF            *pdf.Pool // nil disables PDF export
}

// Server serves one Editor to any number of browser sessions.
type Server struct {
	cfg      Config
	ed       *mdeditor.Editor
	logger   *slog.Logger
	router   chi.Router
	upgrader websocket.Upgrader

	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a Server.
func New(ed *mdeditor.Editor, cfg Config, logger *slog.Logger) *Server {
	if cfg.Clipboard == nil {
		cfg.Clipboard = copyfeedback.NoClipboard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		ed:      ed,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.allowedOrigin}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.cfg.Verbose {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: append([]string{"http://localhost:*", "http://127.0.0.1:*"}, s.cfg.AllowedOrigins...),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// The WebSocket outlives any request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", s.handlePage)
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Route("/api", func(r chi.Router) {
			r.Get("/themes", s.handleThemes)
			r.Get("/preview", s.handlePreview)
			r.Get("/export", s.handleExportCurrent)
			r.Post("/export", s.handleExportSnapshot)
		})
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets.Static()))))
	})

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx ends, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	if ready != nil {
		ready(ln.Addr().String())
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	// Sessions are hijacked connections that Shutdown does not wait for.
	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	p, err := s.ed.Page(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "building page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := p.WriteTo(w); err != nil {
		s.logger.Warn("writing page", "error", err)
	}
}

// themeInfo is the public view of a theme.
type themeInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	active := s.ed.State().ThemeID
	all := theme.All()
	out := make([]themeInfo, 0, len(all))
	for _, d := range all {
		out = append(out, themeInfo{ID: d.ID, Name: d.Name, Category: string(d.Category), Active: d.ID == active})
	}
	writeJSON(w, http.StatusOK, out)
}

type previewResponse struct {
	Theme   string `json:"theme"`
	HTML    string `json:"html"`
	Version uint64 `json:"version"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	version := s.ed.State().Version
	res, err := s.ed.Preview(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "rendering preview", err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Theme: res.ThemeID, HTML: res.HTML, Version: version})
}

// handleExportSnapshot exports the print container of a page posted by the
// browser. A page without a container is a no-op.
func (s *Server) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MaxSnapshotBytes)
	p, err := page.Parse(body)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "parsing snapshot", err)
		return
	}
	doc, err := s.ed.ExportPage(p)
	if errors.Is(err, mdeditor.ErrNoContainer) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "assembling export", err)
		return
	}
	s.deliver(w, r, doc)
}

// handleExportCurrent exports the server-side rendering of the current
// document, as HTML or, with ?format=pdf, as PDF.
func (s *Server) handleExportCurrent(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ed.ExportCurrent(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "assembling export", err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		s.deliver(w, r, doc)
	case "pdf":
		s.deliverPDF(w, r, doc)
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) deliver(w http.ResponseWriter, r *http.Request, doc export.Document) {
	if _, err := (export.HTTPDeliverer{W: w}).Deliver(r.Context(), doc); err != nil {
		s.logger.Warn("delivering export", "error", err)
		return
	}
	s.logger.Info("exported", "file", doc.Filename, "bytes", len(doc.HTML))
}

func (s *Server) deliverPDF(w http.ResponseWriter, r *http.Request, doc export.Document) {
	if s.cfg.PDF == nil {
		http.Error(w, "PDF export is disabled", http.StatusNotImplemented)
		return
	}
	data, err := s.cfg.PDF.Convert(r.Context(), doc.HTML)
	if err != nil {
		s.fail(w, r, http.StatusBadGateway, "printing PDF", err)
		return
	}

	name := pdf.Filename(doc.Filename)
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", export.ContentDisposition(name))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("delivering PDF", "error", err)
		return
	}
	s.logger.Info("exported", "file", name, "bytes", len(data))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}

	sess, err := session.New(r.Context(), s.ed, conn,
		session.WithLogger(s.logger),
		session.WithClipboard(s.cfg.Clipboard),
	)
	if err != nil {
		s.logger.Error("starting session", "error", err)
		_ = conn.Close()
		return
	}
	if err := sess.Run(s.baseCtx); err != nil {
		s.logger.Warn("session ended", "error", err)
	}
}

// allowedOrigin accepts same-host pages, localhost and configured origins.
func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, what string, err error) {
	s.logger.Error(what, "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	http.Error(w, what+" failed", status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/store"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// Logger is the subset of the application logger the server writes to:
// Info for lifecycle events and Error for failed requests.
type Logger interface {
	Info(format string, v ...any)
	Error(format string, v ...any)
}

// Server serves one built dataset as an interactive page and as JSON.
// The page and JSON bodies are rendered once; the dataset is never mutated.
type Server struct {
	build store.Build
	store store.Store
	page  []byte
	data  []byte
	log   Logger
}

type pageData struct {
	Title        string
	Records      []dataset.Record
	Bounds       dataset.BoundingBox
	SkippedPairs int
}

// New renders ds for serving. st is optional; when set, previous builds are
// listed under /builds.
func New(ds *dataset.Dataset, build store.Build, st store.Store, log Logger) (*Server, error) {
	if ds == nil {
		return nil, fmt.Errorf("server: nil dataset: %w", internalerr.ErrInvalidInput)
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}

	title := "vecviz"
	if build.ID != "" {
		title = "vecviz " + build.ID
	}
	var page bytes.Buffer
	err = pageTemplate.Execute(&page, pageData{
		Title:        title,
		Records:      ds.Records,
		Bounds:       ds.Bounds,
		SkippedPairs: ds.SkippedPairs,
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	return &Server{build: build, store: st, page: page.Bytes(), data: data, log: log}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /data.json", s.handleData)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /builds", s.handleBuilds)
	mux.HandleFunc("GET /builds/{id}/data.json", s.handleBuildData)
	return mux
}

// ListenAndServe serves until ctx is cancelled. maxConns > 0 caps the number
// of simultaneous connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string, maxConns int) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("serving to http://%s/    [Ctrl-C to exit]", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.page)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  s.build,
	})
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonError(w, http.StatusNotFound, "no build store configured")
		return
	}
	builds, err := s.store.ListBuilds(r.Context(), 100)
	if err != nil {
		s.log.Error("list builds: %v", err)
		s.jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if builds == nil {
		builds = []store.Build{}
	}
	s.jsonResponse(w, http.StatusOK, builds)
}

func (s *Server) handleBuildData(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonError(w, http.StatusNotFound, "no build store configured")
		return
	}
	_, ds, err := s.store.GetBuild(r.Context(), r.PathValue("id"))
	if errors.Is(err, internalerr.ErrNotFound) {
		s.jsonError(w, http.StatusNotFound, "build not found")
		return
	}
	if err != nil {
		s.log.Error("get build: %v", err)
		s.jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.jsonResponse(w, http.StatusOK, ds)
}

// jsonResponse writes data as a JSON body. The status line is already sent
// when encoding fails, so the error can only be logged.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode response: %v", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

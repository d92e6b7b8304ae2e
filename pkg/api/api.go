// Package api exposes the pipeline over HTTP.
//
//	POST /v1/stack              records + channels → stacked series
//	POST /v1/render?format=svg  records + channels → one rendered artifact
//	GET  /healthz               liveness and build version
//
// Request bodies decode into [pipeline.Options] with inline records; the
// server never reads data paths from requests. Errors carry their code and
// map to 4xx when caused by the request.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stackchart/pkg/buildinfo"
	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/pipeline"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 8 << 20

// RequestTimeout bounds a single pipeline run.
const RequestTimeout = 60 * time.Second

type server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// NewRouter returns the API handler.
func NewRouter(runner *pipeline.Runner, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	s := &server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/stack", s.stack)
		r.Post("/render", s.render)
	})
	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Get().Version})
}

type stackResponse struct {
	Series   []stack.Series `json:"series"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (s *server) stack(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.runner.Stack(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stackResponse{Series: res.Series, Warnings: res.Warnings})
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
}

func (s *server) render(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}

	opts, err := decodeOptions(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cacheState := "miss"
	if res.CacheInfo.RenderHit {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", cacheState)
	for _, warning := range res.Warnings {
		w.Header().Add("X-Stackchart-Warning", warning)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	if opts.DataPath != "" {
		return opts, errors.New(errors.ErrCodeInvalidInput, "data_path is not accepted over HTTP; send records inline")
	}
	if opts.Records == nil {
		return opts, errors.New(errors.ErrCodeInvalidInput, "records are required")
	}
	return opts, nil
}

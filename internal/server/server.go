// =============================================================================
// FX Window Report - HTTP API
// =============================================================================
//
// The server exposes report generation over HTTP: a client uploads an input
// workbook and receives the report workbook in the response.
//
// ROUTES:
//   POST /api/v1/reports   multipart form: file (required), start, end
//   GET  /healthz          liveness
//   GET  /metrics          prometheus exposition
//
// ERRORS (JSON body {"error": "..."}):
//   400 missing file, malformed form or bad window
//   413 upload larger than server.max_upload_mb
//   415 unsupported input format
//   422 input without a header and data row
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-window-report/internal/config"
	"github.com/ginjaninja78/fx-window-report/internal/converter"
	"github.com/ginjaninja78/fx-window-report/internal/logging"
	"github.com/ginjaninja78/fx-window-report/internal/metrics"
	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/source"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/workbook"
	"github.com/ginjaninja78/fx-window-report/pkg/utils"
)

// Response headers carrying report details.
const (
	HeaderRecords = "X-Report-Records"
	HeaderIssues  = "X-Report-Issues"
)

// Server serves the report API.
type Server struct {
	cfg       *config.Config
	generator *converter.Generator
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
	router    chi.Router
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New builds the router. m may be nil, in which case /metrics is not
// mounted.
func New(cfg *config.Config, generator *converter.Generator, m *metrics.Metrics, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		cfg:       cfg,
		generator: generator,
		metrics:   m,
		logger:    logger.WithField("component", "server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reports", s.handleCreateReport)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB))
			return
		}
		s.fail(w, r, http.StatusBadRequest, "expected a multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "missing form file \"file\"")
		return
	}
	defer file.Close()

	start, end, err := s.window(r.FormValue("start"), r.FormValue("end"))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ds, err := source.Read(header.Filename, file, s.cfg.SourceOptions())
	if err != nil {
		if errors.Is(err, source.ErrUnsupportedFormat) {
			s.fail(w, r, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.generator.Generate(ds, start, end)
	if err != nil {
		if errors.Is(err, report.ErrInsufficientData) {
			s.fail(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.WithError(err).WithField("file", header.Filename).Error("Report generation failed")
		s.fail(w, r, http.StatusInternalServerError, "report generation failed")
		return
	}

	name := utils.GenerateOutputFileName(s.cfg.OutputNameFormat, map[string]string{
		"date":  out.Report.GeneratedAt.Format(utils.DateLayout),
		"input": utils.InputStem(header.Filename),
	})

	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Header().Set(HeaderRecords, strconv.Itoa(len(out.Report.Observations)))
	w.Header().Set(HeaderIssues, strconv.Itoa(len(out.Report.Issues)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

// window resolves the requested bounds, falling back to the configured ones.
func (s *Server) window(startText, endText string) (start, end timeparse.TimeOfDay, err error) {
	start, end, err = s.cfg.Window()
	if err != nil {
		return 0, 0, err
	}
	if startText != "" {
		if start, err = timeparse.ParseStrict(startText); err != nil {
			return 0, 0, fmt.Errorf("start: %w", err)
		}
	}
	if endText != "" {
		if end, err = timeparse.ParseStrict(endText); err != nil {
			return 0, 0, fmt.Errorf("end: %w", err)
		}
	}
	if start.After(end) {
		return 0, 0, fmt.Errorf("%w: start %s is after end %s", report.ErrInvalidWindow, start, end)
	}
	return start, end, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// requestLogger logs one line per request through logrus.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(began).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("HTTP request")
	})
}

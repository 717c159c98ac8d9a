package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"

	"tzdiff/internal/calendar"
	"tzdiff/internal/config"
	appLog "tzdiff/internal/log"
	"tzdiff/internal/metrics"
	"tzdiff/internal/model"
	"tzdiff/internal/session"
)

const (
	defaultCitiesLimit = 20
	maxCitiesLimit     = 100
)

// Server exposes difference computations over HTTP.
type Server struct {
	cfg     *config.Config
	session *session.Session
	mux     *http.ServeMux

	// Results for identical query parameters are reused until they expire
	// or the dataset changes.
	results *otter.Cache[string, *model.DifferenceResult]
}

// NewServer constructs a new Server over sess.
func NewServer(cfg *config.Config, sess *session.Session) *Server {
	ttl := time.Duration(cfg.ResultCacheSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &Server{
		cfg:     cfg,
		session: sess,
		mux:     http.NewServeMux(),
		results: otter.Must(&otter.Options[string, *model.DifferenceResult]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, *model.DifferenceResult](ttl),
		}),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// InvalidateResults drops every cached result. Call it after the dataset
// behind the session has been replaced.
func (s *Server) InvalidateResults() {
	s.results.InvalidateAll()
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="tzdiff", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully, giving in-flight requests up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/difference", s.handleDifference)
	s.mux.HandleFunc("GET /api/difference.ics", s.handleDifferenceICS)
	s.mux.HandleFunc("GET /api/cities", s.handleCities)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// differenceParams are the query parameters shared by the JSON and ICS
// difference endpoints.
type differenceParams struct {
	From, To   string
	Start, End string
}

func (p differenceParams) cacheKey() string {
	return strings.Join([]string{p.From, p.To, p.Start, p.End}, "\x00")
}

func parseDifferenceParams(r *http.Request) (differenceParams, error) {
	q := r.URL.Query()
	p := differenceParams{
		From:  strings.TrimSpace(q.Get("from")),
		To:    strings.TrimSpace(q.Get("to")),
		Start: strings.TrimSpace(q.Get("start")),
		End:   strings.TrimSpace(q.Get("end")),
	}
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"from", p.From}, {"to", p.To}, {"start", p.Start}, {"end", p.End},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return p, errors.New("missing query parameter: " + strings.Join(missing, ", "))
	}
	return p, nil
}

// compute returns the result for p, from cache when possible.
func (s *Server) compute(ctx context.Context, p differenceParams) (*model.DifferenceResult, error) {
	key := p.cacheKey()
	if res, ok := s.results.GetIfPresent(key); ok {
		metrics.ResultCacheHitsTotal.Inc()
		return res, nil
	}
	metrics.ResultCacheMissesTotal.Inc()

	start := time.Now()
	res, err := s.session.ComputeRaw(ctx, p.From, p.To, p.Start, p.End)
	metrics.ComputeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)

	_, outcome := statusFor(err)
	metrics.ComputationsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		return nil, err
	}

	metrics.ChangePointsReturned.Observe(float64(len(res.ChangePoints)))
	s.results.Set(key, res)
	return res, nil
}

// statusFor maps a computation error to an HTTP status and a metrics
// outcome label.
func statusFor(err error) (int, string) {
	var (
		notFound   *model.LocationNotFoundError
		unresolved *model.UnresolvedTimezoneError
	)
	switch {
	case err == nil:
		return http.StatusOK, metrics.OutcomeOK
	case errors.As(err, &notFound):
		return http.StatusNotFound, metrics.OutcomeNotFound
	case errors.Is(err, model.ErrInvalidRange), errors.Is(err, model.ErrInvalidDate):
		return http.StatusBadRequest, metrics.OutcomeInvalidInput
	case errors.As(err, &unresolved):
		return http.StatusUnprocessableEntity, metrics.OutcomeUnresolvedTZ
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, metrics.OutcomeCanceled
	default:
		return http.StatusInternalServerError, metrics.OutcomeInternalError
	}
}

func (s *Server) writeComputeError(w http.ResponseWriter, err error, p differenceParams) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		appLog.Error("difference computation failed", err, "from", p.From, "to", p.To)
		writeError(w, status, "internal error")
		return
	}
	appLog.Debug("difference request rejected", "status", status, "error", err)
	writeError(w, status, err.Error())
}

// differenceResponse is the JSON response shape for /api/difference.
type differenceResponse struct {
	*model.DifferenceResult
	Events []model.CalendarEvent `json:"events"`
}

// handleDifference returns change points and display lines.
//
// GET /api/difference?from=London,GB&to=New York&start=2024-01-01&end=2024-12-31
func (s *Server) handleDifference(w http.ResponseWriter, r *http.Request) {
	p, err := parseDifferenceParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.compute(r.Context(), p)
	if err != nil {
		s.writeComputeError(w, err, p)
		return
	}

	writeJSON(w, http.StatusOK, differenceResponse{
		DifferenceResult: res,
		Events:           calendar.ToEvents(res),
	})
}

// handleDifferenceICS returns the same computation as an iCalendar
// attachment, one all-day event per offset change.
func (s *Server) handleDifferenceICS(w http.ResponseWriter, r *http.Request) {
	p, err := parseDifferenceParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.compute(r.Context(), p)
	if err != nil {
		s.writeComputeError(w, err, p)
		return
	}

	var buf bytes.Buffer
	opts := calendar.Options{
		ProductID: s.cfg.Calendar.ProductID,
		Name:      s.cfg.Calendar.Name,
	}
	if err := calendar.WriteICS(&buf, calendar.ToEvents(res), opts); err != nil {
		appLog.Error("ics export failed", err, "from", p.From, "to", p.To)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tzdiff.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// citiesResponse is the JSON response shape for /api/cities.
type citiesResponse struct {
	Labels []string `json:"labels"`
}

// handleCities returns input suggestions whose city starts with q.
//
// GET /api/cities?q=spring&limit=20
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	idx := s.session.Index()
	if idx == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	q := r.URL.Query()
	limit := parseIntDefault(q.Get("limit"), defaultCitiesLimit)
	if limit <= 0 || limit > maxCitiesLimit {
		limit = maxCitiesLimit
	}

	labels := idx.Suggest(q.Get("q"), limit)
	if labels == nil {
		labels = []string{}
	}
	writeJSON(w, http.StatusOK, citiesResponse{Labels: labels})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

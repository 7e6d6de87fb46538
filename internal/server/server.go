package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-tokwalk/internal/config"
	"github.com/example/go-tokwalk/internal/registry"
	"github.com/example/go-tokwalk/internal/service"
	"github.com/example/go-tokwalk/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Resolver turns request hints into an encoder.
type Resolver interface {
	Resolve(req tokenizer.Request) (tokenizer.Encoder, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	defaults       tokenizer.Request
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   1 << 20,
		workers:        4,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent encode/decode calls.
// Zero or less disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithDefaultRequest sets the model and encoding used when a request names neither.
func WithDefaultRequest(req tokenizer.Request) Option {
	return func(o *options) { o.defaults = req }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	resolver Resolver
	opts     options
	sem      chan struct{} // semaphore for worker pool
	log      *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /v1/models,
// /v1/encodings and POST /v1/tokenize, /v1/count and /v1/decode.
func NewHandler(resolver Resolver, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		resolver: resolver,
		opts:     opts,
		log:      opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/v1/models", h.handleModels)
	mux.HandleFunc("/v1/encodings", h.handleEncodings)
	mux.HandleFunc("/v1/tokenize", h.handleTokenize)
	mux.HandleFunc("/v1/count", h.handleCount)
	mux.HandleFunc("/v1/decode", h.handleDecode)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type modelInfo struct {
	Model    string `json:"model"`
	Encoding string `json:"encoding"`
}

func (h *handler) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	models := registry.ValidModels()
	out := make([]modelInfo, 0, len(models))
	for _, m := range models {
		enc, _ := registry.EncodingForModel(m)
		out = append(out, modelInfo{Model: m, Encoding: enc})
	}
	writeJSON(w, http.StatusOK, out)
}

type encodingInfo struct {
	Encoding string   `json:"encoding"`
	Models   []string `json:"models"`
}

func (h *handler) handleEncodings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	encodings := registry.ValidEncodings()
	out := make([]encodingInfo, 0, len(encodings))
	for _, e := range encodings {
		models, _ := registry.ModelsForEncoding(e)
		out = append(out, encodingInfo{Encoding: e, Models: models})
	}
	writeJSON(w, http.StatusOK, out)
}

type textRequest struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Encoding string `json:"encoding"`
}

type tokenizeResponse struct {
	Encoding string `json:"encoding"`
	Tokens   []int  `json:"tokens"`
	Count    int    `json:"count"`
}

type countResponse struct {
	Encoding string `json:"encoding"`
	Count    int    `json:"count"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	h.serveText(w, r, "tokenize", func(enc string, tokens []int) any {
		return tokenizeResponse{Encoding: enc, Tokens: tokens, Count: len(tokens)}
	})
}

func (h *handler) handleCount(w http.ResponseWriter, r *http.Request) {
	h.serveText(w, r, "count", func(enc string, tokens []int) any {
		return countResponse{Encoding: enc, Count: len(tokens)}
	})
}

// serveText runs the shared POST text -> tokens flow and renders the result with respond.
func (h *handler) serveText(w http.ResponseWriter, r *http.Request, op string, respond func(string, []int) any) {
	var req textRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	enc, ok := h.resolve(w, r, req.Model, req.Encoding)
	if !ok {
		return
	}

	var tokens []int
	durationMS, ok := h.run(w, r, op, enc.Name(), func() {
		tokens = enc.Encode(req.Text)
	})
	if !ok {
		return
	}

	h.log.InfoContext(r.Context(), op+" complete",
		slog.String("encoding", enc.Name()),
		slog.Int("text_len", len(req.Text)),
		slog.Int("tokens", len(tokens)),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, respond(enc.Name(), tokens))
}

type decodeRequest struct {
	Tokens   []int  `json:"tokens"`
	Model    string `json:"model"`
	Encoding string `json:"encoding"`
}

type decodeResponse struct {
	Encoding string `json:"encoding"`
	Text     string `json:"text"`
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	enc, ok := h.resolve(w, r, req.Model, req.Encoding)
	if !ok {
		return
	}

	for _, id := range req.Tokens {
		if id < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("token id %d is negative", id))
			return
		}
	}

	var text string
	durationMS, ok := h.run(w, r, "decode", enc.Name(), func() {
		text = enc.Decode(req.Tokens)
	})
	if !ok {
		return
	}

	h.log.InfoContext(r.Context(), "decode complete",
		slog.String("encoding", enc.Name()),
		slog.Int("tokens", len(req.Tokens)),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, decodeResponse{Encoding: enc.Name(), Text: text})
}

// decodeBody enforces POST and reads a bounded JSON body into v.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	// JSON escaping can grow text up to six bytes per input byte.
	limit := int64(h.opts.maxTextBytes)*6 + 4096
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	return true
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request, model, encoding string) (tokenizer.Encoder, bool) {
	req := tokenizer.Request{Model: model, Encoding: encoding}
	if req.Empty() {
		req = h.opts.defaults
	}

	enc, err := h.resolver.Resolve(req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), "encoding unavailable",
				slog.String("model", req.Model),
				slog.String("encoding", req.Encoding),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, status, err.Error())
		return nil, false
	}

	return enc, true
}

// statusFor maps resolution errors to HTTP status codes. Errors outside the
// resolution taxonomy come from building the encoder and are server faults.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tokenizer.ErrUnknownModel),
		errors.Is(err, tokenizer.ErrUnknownEncoding):
		return http.StatusNotFound
	case errors.Is(err, tokenizer.ErrModelEncodingMismatch),
		errors.Is(err, tokenizer.ErrEncodingHandleMismatch):
		return http.StatusConflict
	case errors.Is(err, tokenizer.ErrNoEncodingSpecified),
		errors.Is(err, tokenizer.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// run executes fn inside a worker slot under the request deadline. It writes
// the error response itself and returns false when fn did not complete.
func (h *handler) run(w http.ResponseWriter, r *http.Request, op, encoding string, fn func()) (int64, bool) {
	// Acquire a worker slot, honour context cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
			// slot acquired
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return 0, false
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return time.Since(start).Milliseconds(), true
	case <-ctx.Done():
		h.log.WarnContext(r.Context(), op+" timed out",
			slog.String("encoding", encoding),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("error", ctx.Err().Error()),
		)
		writeError(w, http.StatusGatewayTimeout, op+" timed out")
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	svc             *service.Service
	shutdownTimeout time.Duration
}

// New returns a Server for cfg. A nil svc is built from cfg on Start.
func New(cfg config.Config, svc *service.Service) *Server {
	shutdown := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	return &Server{
		cfg:             cfg,
		svc:             svc,
		shutdownTimeout: shutdown,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	svc := s.svc
	if svc == nil {
		var err error
		svc, err = service.New()
		if err != nil {
			return fmt.Errorf("initialize service: %w", err)
		}
	}

	handlerOpts := []Option{
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second),
		WithDefaultRequest(tokenizer.Request{
			Model:    s.cfg.Encoding.Model,
			Encoding: s.cfg.Encoding.Name,
		}),
	}

	h := NewHandler(svc, handlerOpts...)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	slog.InfoContext(ctx, "http server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}

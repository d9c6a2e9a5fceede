// Package adapter implements the backend-for-frontend proxy used by the console
// API endpoints. An Adapter maps an action name onto exactly one outbound call
// against a configured third-party service and normalizes the response into an
// Envelope.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxResponseBytes bounds how much of an upstream body is read.
var maxResponseBytes int64 = 10 << 20

// errResponseTooLarge marks an upstream body that exceeded maxResponseBytes.
var errResponseTooLarge = errors.New("response exceeds limit")

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Request is an inbound action descriptor.
type Request struct {
	Action string
	Params map[string]string
}

// RequestFromQuery builds a Request from URL query values. The first value
// of each parameter wins.
func RequestFromQuery(q url.Values) Request {
	params := make(map[string]string, len(q))
	for key, values := range q {
		if key == "action" || len(values) == 0 {
			continue
		}
		params[key] = strings.TrimSpace(values[0])
	}
	return Request{
		Action: strings.TrimSpace(q.Get("action")),
		Params: params,
	}
}

// Envelope is the uniform response returned to every caller.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Action declares one supported operation of a service.
type Action struct {
	Name string
	// Method defaults to GET.
	Method string
	// Path is appended to the service base URL. It may carry a query string.
	// {name} placeholders resolve to required params first, then service vars.
	Path string
	// Params lists the request parameters that must be present and non-empty.
	Params []string
	// Body is JSON-encoded and sent with the request when non-nil.
	Body    any
	Extract Extractor
}

// Service is the declarative definition of an integrated third-party API.
type Service struct {
	// Name is the route key, e.g. "cloudflare".
	Name string
	// DisplayName is used in caller-facing messages, e.g. "Cloudflare".
	DisplayName string
	BaseURL     string
	// Vars holds process-wide configuration (credentials, account IDs).
	// Every entry must be non-empty for the service to be usable.
	Vars map[string]string
	// Headers are sent on every request; values may reference {vars}.
	Headers map[string]string
	Actions []Action
}

// Recorder receives one observation per handled request.
type Recorder interface {
	ObserveCall(service, action, outcome string, duration time.Duration)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		a.recorder = r
	}
}

// Adapter proxies action requests to a single service.
// It holds no mutable state and is safe for concurrent use.
type Adapter struct {
	service  Service
	actions  map[string]Action
	client   *http.Client
	recorder Recorder
	logger   zerolog.Logger
}

// New validates the service definition and creates an Adapter.
func New(svc Service, client *http.Client, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if svc.Name == "" {
		return nil, errors.New("adapter: service name is required")
	}
	if svc.DisplayName == "" {
		svc.DisplayName = svc.Name
	}
	if client == nil {
		return nil, fmt.Errorf("adapter %s: http client is required", svc.Name)
	}

	actions := make(map[string]Action, len(svc.Actions))
	for _, action := range svc.Actions {
		if action.Name == "" {
			return nil, fmt.Errorf("adapter %s: action name is required", svc.Name)
		}
		if _, dup := actions[action.Name]; dup {
			return nil, fmt.Errorf("adapter %s: duplicate action %q", svc.Name, action.Name)
		}
		if action.Extract.fn == nil {
			return nil, fmt.Errorf("adapter %s: action %q has no extractor", svc.Name, action.Name)
		}
		if err := checkPlaceholders(svc, action); err != nil {
			return nil, fmt.Errorf("adapter %s: %w", svc.Name, err)
		}
		if action.Method == "" {
			action.Method = http.MethodGet
		}
		actions[action.Name] = action
	}

	a := &Adapter{
		service: svc,
		actions: actions,
		client:  client,
		logger:  logger.With().Str("component", "adapter").Str("service", svc.Name).Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// checkPlaceholders rejects templates referencing names that can never resolve.
func checkPlaceholders(svc Service, action Action) error {
	known := make(map[string]bool, len(action.Params)+len(svc.Vars))
	for _, p := range action.Params {
		known[p] = true
	}
	for k := range svc.Vars {
		known[k] = true
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(action.Path, -1) {
		if !known[m[1]] {
			return fmt.Errorf("action %q references unknown placeholder {%s}", action.Name, m[1])
		}
	}
	return nil
}

// Name returns the service route key.
func (a *Adapter) Name() string {
	return a.service.Name
}

// DisplayName returns the human-readable service name.
func (a *Adapter) DisplayName() string {
	return a.service.DisplayName
}

// ActionInfo describes a supported action.
type ActionInfo struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	List   bool     `json:"list"`
}

// Actions returns the supported actions in declaration order.
func (a *Adapter) Actions() []ActionInfo {
	out := make([]ActionInfo, 0, len(a.service.Actions))
	for _, action := range a.service.Actions {
		params := action.Params
		if params == nil {
			params = []string{}
		}
		out = append(out, ActionInfo{Name: action.Name, Params: params, List: action.Extract.List})
	}
	return out
}

// Configured reports whether every required configuration value is present.
func (a *Adapter) Configured() bool {
	return a.missingConfig() == ""
}

func (a *Adapter) missingConfig() string {
	var missing []string
	if strings.TrimSpace(a.service.BaseURL) == "" {
		missing = append(missing, "base_url")
	}
	for k, v := range a.service.Vars {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return strings.Join(missing, ", ")
}

// Handle performs the request and always returns a well-formed envelope
// with the HTTP status to send.
func (a *Adapter) Handle(ctx context.Context, req Request) (int, Envelope) {
	data, err := a.Do(ctx, req)
	if err != nil {
		adapterErr := AsError(a.service.DisplayName, err)
		return adapterErr.HTTPStatus(), Envelope{Success: false, Error: adapterErr.Message}
	}
	return http.StatusOK, Envelope{Success: true, Data: data}
}

// Do validates the request, performs exactly one outbound call and extracts
// the result. Every error returned is an *Error.
func (a *Adapter) Do(ctx context.Context, req Request) (data json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		a.observe(req.Action, start, err)
	}()

	action, ok := a.actions[req.Action]
	if !ok {
		return nil, errInvalidAction()
	}

	values := make(map[string]string, len(action.Params))
	for _, name := range action.Params {
		v := strings.TrimSpace(req.Params[name])
		if v == "" {
			return nil, errMissingParam(name)
		}
		// Dot segments would move the request off its endpoint template.
		if v == "." || v == ".." {
			return nil, errInvalidParam(name)
		}
		values[name] = v
	}

	if missing := a.missingConfig(); missing != "" {
		return nil, errNotConfigured(a.service.DisplayName, missing)
	}

	httpReq, err := a.buildRequest(ctx, action, values)
	if err != nil {
		return nil, errUnexpected(a.service.DisplayName, err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, errUnexpected(a.service.DisplayName, fmt.Errorf("%s %s: %w", action.Method, action.Name, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, errUnexpected(a.service.DisplayName, fmt.Errorf("read response: %w", err))
	}
	if int64(len(body)) > maxResponseBytes {
		a.logger.Warn().
			Str("action", action.Name).
			Int("upstream_status", resp.StatusCode).
			Int64("limit_bytes", maxResponseBytes).
			Msg("response exceeds limit")
		return nil, errUnexpected(a.service.DisplayName, fmt.Errorf("%s: %w", action.Name, errResponseTooLarge))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errUpstream(a.service.DisplayName, resp.StatusCode, fmt.Errorf("upstream body: %s", truncate(body, 512)))
	}

	data, err = action.Extract.Extract(body)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, errUpstream(a.service.DisplayName, http.StatusNotFound, err)
		}
		return nil, errUnexpected(a.service.DisplayName, err)
	}

	return data, nil
}

func (a *Adapter) buildRequest(ctx context.Context, action Action, params map[string]string) (*http.Request, error) {
	lookup := func(name string) string {
		if v, ok := params[name]; ok {
			return v
		}
		return a.service.Vars[name]
	}

	path, query, _ := strings.Cut(action.Path, "?")
	target := strings.TrimRight(a.service.BaseURL, "/") + expand(path, lookup, url.PathEscape)
	if query != "" {
		target += "?" + expand(query, lookup, url.QueryEscape)
	}

	var body io.Reader
	if action.Body != nil {
		encoded, err := json.Marshal(action.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, action.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range a.service.Headers {
		req.Header.Set(k, expand(v, lookup, nil))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (a *Adapter) observe(action string, start time.Time, err error) {
	duration := time.Since(start)
	outcome := "success"
	event := a.logger.Debug()

	if err != nil {
		adapterErr := AsError(a.service.DisplayName, err)
		outcome = adapterErr.Kind.String()
		switch adapterErr.Kind {
		case KindValidation:
			event = a.logger.Debug()
		case KindUpstream:
			event = a.logger.Warn().Int("upstream_status", adapterErr.UpstreamStatus)
		default:
			event = a.logger.Error()
		}
		event = event.Err(adapterErr.Err).Str("message", adapterErr.Message)
	}

	if _, known := a.actions[action]; !known {
		action = "invalid"
	}

	event.
		Str("action", action).
		Str("outcome", outcome).
		Dur("duration", duration).
		Msg("adapter call")

	if a.recorder != nil {
		a.recorder.ObserveCall(a.service.Name, action, outcome, duration)
	}
}

// expand replaces {name} placeholders using lookup, escaping values when escape is set.
func expand(tmpl string, lookup func(string) string, escape func(string) string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		v := lookup(m[1 : len(m)-1])
		if escape != nil {
			return escape(v)
		}
		return v
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Package requester implements the dashboard update request workflow: it
// collects a dashboard ID from an operator, validates it, posts one request
// to the deployed action hub, and reports exactly one result notice.
package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// Kind classifies the result notice of a submission attempt.
type Kind string

const (
	// KindValidationError means the identifier was blank after trimming.
	KindValidationError Kind = "validation-error"
	// KindUnconfigured means no action hub endpoint is configured.
	KindUnconfigured Kind = "unconfigured"
	// KindSuccess means the hub accepted the request.
	KindSuccess Kind = "success"
	// KindFailure means transport failure or remote rejection.
	KindFailure Kind = "failure"
)

// Notice is the single visible result of a submission attempt.
type Notice struct {
	Kind    Kind
	Message string
}

// Fixed operator-facing messages. The deployed system speaks Spanish.
const (
	msgMissingID    = "Falta el Dashboard ID."
	msgUnconfigured = "La URL de la cloud function no está configurada."
	msgFallback     = "La acción falló sin mensaje del servidor."

	connErrorPrefix = "Error de conexión: "
)

type executePayload struct {
	FormParams formParams `json:"form_params"`
}

type formParams struct {
	DashboardID string `json:"dashboard_id"`
	Confirm     string `json:"confirm"`
}

type executeResponse struct {
	Looker struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"looker"`
}

// Session holds the per-operator state: the identifier input, the current
// notice, and a busy flag the front end uses to disable submission while a
// request is in flight. There is one logical caller per session; Submit is
// not meant to be invoked concurrently.
type Session struct {
	endpoint string
	client   *http.Client

	mu     sync.Mutex
	input  string
	notice *Notice
	busy   atomic.Bool
}

// Option customizes a Session.
type Option func(*Session)

// WithHTTPClient overrides the HTTP client used for submissions.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.client = client
		}
	}
}

// NewSession builds a session targeting the given action hub base URL. An
// empty endpoint is allowed; submissions then yield an unconfigured notice.
// The default client carries no timeout: the one request is a manual,
// low-frequency trigger and relies on transport defaults.
func NewSession(endpoint string, opts ...Option) *Session {
	s := &Session{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Input returns the current identifier input.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Notice returns the current result notice, or nil when none is set.
func (s *Session) Notice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

// Dismiss clears the current notice.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
}

// Submit runs one submission attempt for the given identifier. The prior
// notice is cleared first, so at most one notice exists at any time. At most
// one network call is made per invocation; validation and configuration
// failures short-circuit before any dispatch. Every failure is converted to
// a notice; nothing propagates as an error. The busy flag is cleared on
// every exit path.
func (s *Session) Submit(ctx context.Context, identifier string) Notice {
	s.busy.Store(true)
	defer s.busy.Store(false)

	s.mu.Lock()
	s.input = identifier
	s.notice = nil
	s.mu.Unlock()

	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return s.setNotice(Notice{Kind: KindValidationError, Message: msgMissingID})
	}
	if s.endpoint == "" {
		return s.setNotice(Notice{Kind: KindUnconfigured, Message: msgUnconfigured})
	}

	body, err := json.Marshal(executePayload{FormParams: formParams{DashboardID: trimmed, Confirm: "yes"}})
	if err != nil {
		return s.setNotice(Notice{Kind: KindFailure, Message: connErrorPrefix + err.Error()})
	}
	url := strings.TrimRight(s.endpoint, "/") + "/execute"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return s.setNotice(Notice{Kind: KindFailure, Message: connErrorPrefix + err.Error()})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return s.setNotice(Notice{Kind: KindFailure, Message: connErrorPrefix + err.Error()})
	}
	defer resp.Body.Close()

	// The hub reports rejections through the body, not the status code, so
	// the body is decoded regardless of status.
	var parsed executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return s.setNotice(Notice{Kind: KindFailure, Message: connErrorPrefix + err.Error()})
	}
	if parsed.Looker.Success {
		s.mu.Lock()
		s.input = ""
		s.mu.Unlock()
		return s.setNotice(Notice{Kind: KindSuccess, Message: parsed.Looker.Message})
	}
	message := strings.TrimSpace(parsed.Looker.Message)
	if message == "" {
		message = msgFallback
	}
	return s.setNotice(Notice{Kind: KindFailure, Message: message})
}

func (s *Session) setNotice(n Notice) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &n
	return n
}

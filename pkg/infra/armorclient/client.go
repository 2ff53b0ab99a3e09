// Package armorclient talks to the composite filter backend. The backend
// evaluates its whole template (policy-violation content, sensitive-data
// patterns, prompt injection, malicious links, exploitative content) in one
// call and encodes its own blocking decision; this client only transports
// and decodes it.
package armorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/valyala/fastjson"

	"github.com/polyguard-ai/polyguard/pkg/infra/backend"
	"github.com/polyguard-ai/polyguard/pkg/infra/httpx"
)

const backendName = "armor"

// MatchFound is the match state signaling the backend wants the content
// blocked.
const MatchFound = "MATCH_FOUND"

// CategoryResult is a sub-category outcome inside the rai filter.
type CategoryResult struct {
	MatchState      string `json:"match_state"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
}

// FilterResult is one filter's outcome. Categories is populated for the rai
// filter only.
type FilterResult struct {
	FilterType      string                    `json:"filter_type"`
	ExecutionState  string                    `json:"execution_state"`
	MatchState      string                    `json:"match_state"`
	ConfidenceLevel string                    `json:"confidence_level,omitempty"`
	Categories      map[string]CategoryResult `json:"categories,omitempty"`
}

// Result is the decoded sanitization outcome.
type Result struct {
	OverallMatchState string                  `json:"overall_match_state"`
	Blocked           bool                    `json:"blocked"`
	Filters           map[string]FilterResult `json:"filter_results"`
}

//go:generate mockery --name=Client --dir=. --output=../../../mocks --filename=armor_client_mock.go --case=underscore --with-expecter
type Client interface {
	SanitizeUserPrompt(ctx context.Context, text string) (*Result, error)
	SanitizeModelResponse(ctx context.Context, text string) (*Result, error)
}

type client struct {
	endpoint     string
	apiKey       string
	templatePath string
	http         httpx.Client
	breaker      httpx.CircuitBreaker
	logger       *logrus.Logger
	parsers      fastjson.ParserPool
}

// NewClient builds a client bound to one pre-configured template.
func NewClient(endpoint, apiKey, projectID, locationID, templateID string, httpClient httpx.Client, logger *logrus.Logger) Client {
	return &client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		templatePath: fmt.Sprintf("projects/%s/locations/%s/templates/%s", projectID, locationID, templateID),
		http:         httpClient,
		breaker:      httpx.NewCircuitBreaker(httpx.BreakerSettings{Name: backendName}),
		logger:       logger,
	}
}

func (c *client) SanitizeUserPrompt(ctx context.Context, text string) (*Result, error) {
	return c.sanitize(ctx, "sanitizeUserPrompt", map[string]any{
		"userPromptData": map[string]any{"text": text},
	})
}

func (c *client) SanitizeModelResponse(ctx context.Context, text string) (*Result, error) {
	return c.sanitize(ctx, "sanitizeModelResponse", map[string]any{
		"modelResponseData": map[string]any{"text": text},
	})
}

func (c *client) sanitize(ctx context.Context, method string, request map[string]any) (*Result, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, backend.NewError(backend.KindFailure, backendName, err)
	}

	var body []byte
	err = c.breaker.Execute(func() error {
		url := fmt.Sprintf("%s/v1/%s:%s", c.endpoint, c.templatePath, method)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backend.NewError(backend.KindFailure, backendName, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return backend.NewError(backend.KindUnavailable, backendName, err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backend.NewError(backend.KindFailure, backendName, err)
		}
		if resp.StatusCode != http.StatusOK {
			return backend.FromStatus(resp.StatusCode, backendName, body)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, backend.NewError(backend.KindUnavailable, backendName, err)
		}
		var be *backend.Error
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, backend.NewError(backend.KindFailure, backendName, err)
	}

	result, err := c.decode(body)
	if err != nil {
		c.logger.WithError(err).WithField("method", method).Error("failed to decode sanitization response")
		return nil, backend.NewError(backend.KindFailure, backendName, err)
	}
	return result, nil
}

// decode walks the heterogeneous filterResults object. Each filter key wraps
// its payload under a filter-specific field name, so the parse is dynamic
// rather than struct-shaped.
func (c *client) decode(body []byte) (*Result, error) {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	root, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("invalid sanitization payload: %w", err)
	}

	sanitization := root.Get("sanitizationResult")
	if sanitization == nil {
		return nil, fmt.Errorf("sanitization payload missing sanitizationResult")
	}

	overall := stringOr(sanitization.Get("filterMatchState"), "UNKNOWN")
	result := &Result{
		OverallMatchState: overall,
		Blocked:           overall == MatchFound,
		Filters:           make(map[string]FilterResult),
	}

	filters := sanitization.Get("filterResults")
	if filters == nil {
		return result, nil
	}

	obj, err := filters.Object()
	if err != nil {
		return nil, fmt.Errorf("filterResults is not an object: %w", err)
	}
	obj.Visit(func(key []byte, v *fastjson.Value) {
		name := string(key)
		result.Filters[name] = decodeFilter(name, v)
	})
	return result, nil
}

func decodeFilter(name string, v *fastjson.Value) FilterResult {
	out := FilterResult{
		FilterType:     name,
		ExecutionState: "UNKNOWN",
		MatchState:     "UNKNOWN",
	}

	var inner *fastjson.Value
	switch name {
	case "rai":
		inner = v.Get("raiFilterResult")
	case "sdp":
		// The sdp payload nests its states one level deeper.
		inner = v.Get("sdpFilterResult", "inspectResult")
	case "pi_and_jailbreak":
		inner = v.Get("piAndJailbreakFilterResult")
	case "malicious_uris":
		inner = v.Get("maliciousUriFilterResult")
	case "csam":
		inner = v.Get("csamFilterFilterResult")
	}
	if inner == nil {
		return out
	}

	out.ExecutionState = stringOr(inner.Get("executionState"), "UNKNOWN")
	out.MatchState = stringOr(inner.Get("matchState"), "UNKNOWN")
	out.ConfidenceLevel = confidenceLevel(inner)

	if name == "rai" {
		if cats := inner.Get("raiFilterTypeResults"); cats != nil {
			if obj, err := cats.Object(); err == nil {
				out.Categories = make(map[string]CategoryResult)
				obj.Visit(func(key []byte, cv *fastjson.Value) {
					out.Categories[string(key)] = CategoryResult{
						MatchState:      stringOr(cv.Get("matchState"), "UNKNOWN"),
						ConfidenceLevel: confidenceLevel(cv),
					}
				})
			}
		}
	}
	return out
}

func confidenceLevel(v *fastjson.Value) string {
	level := stringOr(v.Get("confidenceLevel"), "")
	if level == "CONFIDENCE_LEVEL_UNSPECIFIED" {
		return ""
	}
	return level
}

func stringOr(v *fastjson.Value, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := v.StringBytes()
	if err != nil {
		return fallback
	}
	return string(b)
}

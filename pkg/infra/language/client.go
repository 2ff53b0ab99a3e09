// Package language talks to the remote natural-language backend over its
// REST surface. It reports raw signals only; policy belongs to the
// detectors.
package language

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

	"github.com/polyguard-ai/polyguard/pkg/infra/backend"
	"github.com/polyguard-ai/polyguard/pkg/infra/httpx"
)

const backendName = "language"

// Sentiment is the document-level sentiment signal.
type Sentiment struct {
	Score          float64         `json:"score"`
	Magnitude      float64         `json:"magnitude"`
	Interpretation string          `json:"interpretation"`
	Sentences      []SentenceScore `json:"sentences,omitempty"`
}

// SentenceScore is one sentence's sentiment.
type SentenceScore struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Entity is one structured entity observation.
type Entity struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Salience float64 `json:"salience"`
}

// Category is a label with a confidence, used by both classification and
// moderation.
type Category struct {
	Name       string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

//go:generate mockery --name=Client --dir=. --output=../../../mocks --filename=language_client_mock.go --case=underscore --with-expecter
type Client interface {
	AnalyzeSentiment(ctx context.Context, text string) (*Sentiment, error)
	AnalyzeEntities(ctx context.Context, text string) ([]Entity, error)
	ClassifyText(ctx context.Context, text string) ([]Category, error)
	ModerateText(ctx context.Context, text string) ([]Category, error)
}

type client struct {
	endpoint string
	apiKey   string
	http     httpx.Client
	breaker  httpx.CircuitBreaker
	logger   *logrus.Logger
}

// NewClient builds a REST client against endpoint, authenticated with
// apiKey. All calls share one circuit breaker.
func NewClient(endpoint, apiKey string, httpClient httpx.Client, logger *logrus.Logger) Client {
	return &client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     httpClient,
		breaker:  httpx.NewCircuitBreaker(httpx.BreakerSettings{Name: backendName}),
		logger:   logger,
	}
}

type document struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type analyzeRequest struct {
	Document document `json:"document"`
}

func (c *client) AnalyzeSentiment(ctx context.Context, text string) (*Sentiment, error) {
	var wire struct {
		DocumentSentiment struct {
			Score     float64 `json:"score"`
			Magnitude float64 `json:"magnitude"`
		} `json:"documentSentiment"`
		Sentences []struct {
			Text struct {
				Content string `json:"content"`
			} `json:"text"`
			Sentiment struct {
				Score float64 `json:"score"`
			} `json:"sentiment"`
		} `json:"sentences"`
	}
	if err := c.call(ctx, "documents:analyzeSentiment", text, &wire); err != nil {
		return nil, err
	}

	out := &Sentiment{
		Score:          wire.DocumentSentiment.Score,
		Magnitude:      wire.DocumentSentiment.Magnitude,
		Interpretation: interpret(wire.DocumentSentiment.Score, wire.DocumentSentiment.Magnitude),
	}
	for _, s := range wire.Sentences {
		out.Sentences = append(out.Sentences, SentenceScore{
			Text:  s.Text.Content,
			Score: s.Sentiment.Score,
		})
	}
	return out, nil
}

func (c *client) AnalyzeEntities(ctx context.Context, text string) ([]Entity, error) {
	var wire struct {
		Entities []Entity `json:"entities"`
	}
	if err := c.call(ctx, "documents:analyzeEntities", text, &wire); err != nil {
		return nil, err
	}
	return wire.Entities, nil
}

func (c *client) ClassifyText(ctx context.Context, text string) ([]Category, error) {
	var wire struct {
		Categories []struct {
			Name       string  `json:"name"`
			Confidence float64 `json:"confidence"`
		} `json:"categories"`
	}
	if err := c.call(ctx, "documents:classifyText", text, &wire); err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(wire.Categories))
	for _, cat := range wire.Categories {
		out = append(out, Category{Name: cat.Name, Confidence: cat.Confidence})
	}
	return out, nil
}

func (c *client) ModerateText(ctx context.Context, text string) ([]Category, error) {
	var wire struct {
		ModerationCategories []struct {
			Name       string  `json:"name"`
			Confidence float64 `json:"confidence"`
		} `json:"moderationCategories"`
	}
	if err := c.call(ctx, "documents:moderateText", text, &wire); err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(wire.ModerationCategories))
	for _, cat := range wire.ModerationCategories {
		out = append(out, Category{Name: cat.Name, Confidence: cat.Confidence})
	}
	return out, nil
}

func (c *client) call(ctx context.Context, method, text string, out any) error {
	payload, err := json.Marshal(analyzeRequest{
		Document: document{Type: "PLAIN_TEXT", Content: text},
	})
	if err != nil {
		return backend.NewError(backend.KindFailure, backendName, err)
	}

	var body []byte
	err = c.breaker.Execute(func() error {
		url := fmt.Sprintf("%s/v1/%s", c.endpoint, method)
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
			return backend.NewError(backend.KindUnavailable, backendName, err)
		}
		var be *backend.Error
		if errors.As(err, &be) {
			return be
		}
		return backend.NewError(backend.KindFailure, backendName, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.WithError(err).WithField("method", method).Error("failed to decode backend response")
		return backend.NewError(backend.KindFailure, backendName, err)
	}
	return nil
}

// interpret renders the score and magnitude bands as a short label.
func interpret(score, magnitude float64) string {
	var direction string
	switch {
	case score > 0.25:
		direction = "Positive"
	case score < -0.25:
		direction = "Negative"
	default:
		direction = "Neutral"
	}

	var intensity string
	switch {
	case magnitude > 2.0:
		intensity = "Strong"
	case magnitude > 1.0:
		intensity = "Moderate"
	default:
		intensity = "Mild"
	}
	return intensity + " " + direction
}

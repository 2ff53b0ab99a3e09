package language_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyguard-ai/polyguard/pkg/infra/backend"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
)

type fakeHTTP struct {
	status   int
	body     string
	lastPath string
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	f.lastPath = req.URL.Path
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
	}, nil
}

func newClient(f *fakeHTTP) language.Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return language.NewClient("https://example.test", "key", f, logger)
}

func TestAnalyzeSentiment_DecodesAndInterprets(t *testing.T) {
	f := &fakeHTTP{status: http.StatusOK, body: `{
		"documentSentiment": {"score": -0.6, "magnitude": 2.4},
		"sentences": [
			{"text": {"content": "I hate this."}, "sentiment": {"score": -0.6}}
		]
	}`}
	c := newClient(f)

	result, err := c.AnalyzeSentiment(context.Background(), "I hate this.")
	require.NoError(t, err)
	assert.Equal(t, -0.6, result.Score)
	assert.Equal(t, 2.4, result.Magnitude)
	assert.Equal(t, "Strong Negative", result.Interpretation)
	require.Len(t, result.Sentences, 1)
	assert.Equal(t, "I hate this.", result.Sentences[0].Text)
	assert.Equal(t, "/v1/documents:analyzeSentiment", f.lastPath)
}

func TestAnalyzeSentiment_NeutralInterpretation(t *testing.T) {
	f := &fakeHTTP{status: http.StatusOK, body: `{
		"documentSentiment": {"score": 0.1, "magnitude": 0.2}
	}`}
	c := newClient(f)

	result, err := c.AnalyzeSentiment(context.Background(), "the sky is blue")
	require.NoError(t, err)
	assert.Equal(t, "Mild Neutral", result.Interpretation)
}

func TestModerateText_DecodesCategories(t *testing.T) {
	f := &fakeHTTP{status: http.StatusOK, body: `{
		"moderationCategories": [
			{"name": "Violent", "confidence": 0.7},
			{"name": "Toxic", "confidence": 0.1}
		]
	}`}
	c := newClient(f)

	categories, err := c.ModerateText(context.Background(), "some text")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Violent", categories[0].Name)
	assert.Equal(t, 0.7, categories[0].Confidence)
}

func TestCall_TranslatesStatusToErrorKind(t *testing.T) {
	cases := []struct {
		status int
		kind   backend.Kind
	}{
		{http.StatusUnauthorized, backend.KindAuth},
		{http.StatusTooManyRequests, backend.KindQuotaExceeded},
		{http.StatusNotFound, backend.KindNotFound},
		{http.StatusBadRequest, backend.KindInvalidArgument},
		{http.StatusServiceUnavailable, backend.KindUnavailable},
	}
	for _, tc := range cases {
		c := newClient(&fakeHTTP{status: tc.status, body: `{}`})
		_, err := c.ClassifyText(context.Background(), "some text")
		require.Error(t, err)
		assert.Equal(t, tc.kind, backend.KindOf(err), "status %d", tc.status)
	}
}

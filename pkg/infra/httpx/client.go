package httpx

import "net/http"

// Client is the narrow HTTP surface the backend clients depend on, so tests
// can substitute a fake without a listener.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

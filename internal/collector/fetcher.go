package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"PyramidSentinel/internal/model"
)

// Fetcher defines the interface for fetching live quotes.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}

// New returns the fetcher for the named provider.
func New(provider, proxyURL string) Fetcher {
	if provider == "yahoo" {
		return NewYahooFetcher(proxyURL)
	}
	return NewSinaFetcher(proxyURL)
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

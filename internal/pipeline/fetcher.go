package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ppiankov/vacdash/internal/model"
	"github.com/ppiankov/vacdash/internal/worker"
)

// Fetcher retrieves pages of field data from the survey API
type Fetcher struct {
	httpClient *http.Client
	api        model.APIConfig
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
}

// NewFetcher creates a new Fetcher. limiter may be nil.
func NewFetcher(api model.APIConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter) *Fetcher {
	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		api:       api,
		userAgent: httpCfg.UserAgent,
		maxBytes:  maxBytes,
		limiter:   limiter,
	}
}

// PageSize returns the number of items requested per page
func (f *Fetcher) PageSize() int { return f.api.PageSize }

// FirstPage returns the page number the data set starts at
func (f *Fetcher) FirstPage() int { return f.api.PageNumber }

// RequestURL builds the GET URL for a page, keeping any query already on the base URL
func (f *Fetcher) RequestURL(page int) (string, error) {
	u, err := url.Parse(f.api.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	q := u.Query()
	if q.Get("ProjectId") == "" {
		q.Set("ProjectId", strconv.Itoa(f.api.ProjectID))
	}
	if q.Get("TableId") == "" {
		q.Set("TableId", strconv.Itoa(f.api.TableID))
	}
	q.Set("PageSize", strconv.Itoa(f.api.PageSize))
	q.Set("PageNumber", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// FetchPage performs one GET for the given page and returns the raw body
func (f *Fetcher) FetchPage(ctx context.Context, page int) ([]byte, error) {
	reqURL, err := f.RequestURL(page)
	if err != nil {
		return nil, &NetworkError{URL: f.api.BaseURL, Err: err}
	}

	if err := f.limiter.Wait(ctx, reqURL); err != nil {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("rate limit: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("apiKey", f.api.Key)
	req.Header.Set("content-type", "text/plain")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("fetch: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}

// DecodeItems parses the API envelope and returns payload.items
func DecodeItems(body []byte) ([]model.RawItem, error) {
	var envelope model.FieldDataResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON", Err: err}
	}
	if envelope.Payload == nil {
		return nil, &DecodeError{Reason: "missing payload"}
	}

	raw := bytes.TrimSpace(envelope.Payload.Items)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &DecodeError{Reason: "payload.items is not a list"}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var items []model.RawItem
	if err := dec.Decode(&items); err != nil {
		return nil, &DecodeError{Reason: "payload.items", Err: err}
	}
	return items, nil
}

// proxyFunc picks explicit proxies when configured, else the environment
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

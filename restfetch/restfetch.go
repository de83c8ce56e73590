// Package restfetch builds a listcache.FetchFunc for JSON list endpoints of
// the form GET <base>/api/<resource>?page=1&limit=25&<filters> answering
// {"data": [...], "total": n}.
package restfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/listcache"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultMaxBody = 8 << 20
)

var ErrBodyTooLarge = errors.New("restfetch: response body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	RequestID  string
	Body       string // first bytes of the body, for diagnostics
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d (request %s)", e.URL, e.StatusCode, e.RequestID)
}

type Config struct {
	BaseURL string       // e.g. "https://app.example.com"
	Client  *http.Client // nil => http.DefaultClient
	Header  http.Header  // sent on every request
	MaxBody int64        // 0 => 8 MiB
}

// New returns a FetchFunc for resource. Params are sent as query values in
// key order; slices become repeated values and nil values are skipped.
func New[T any](cfg Config, resource string) (listcache.FetchFunc[T], error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("restfetch: base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("restfetch: base url %q must be absolute", cfg.BaseURL)
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	endpoint := base.JoinPath("api", resource)

	return func(ctx context.Context, p listcache.Params) (listcache.Page[T], error) {
		u := *endpoint
		u.RawQuery = encode(p)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return listcache.Page[T]{}, fmt.Errorf("create request: %w", err)
		}
		for k, vs := range cfg.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		rid := uuid.New().String()
		req.Header.Set(RequestIDHeader, rid)
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return listcache.Page[T]{}, fmt.Errorf("get %s: %w", resource, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
		if err != nil {
			return listcache.Page[T]{}, fmt.Errorf("read %s: %w", resource, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet := body
			if len(snippet) > 256 {
				snippet = snippet[:256]
			}
			return listcache.Page[T]{}, &StatusError{
				URL:        u.String(),
				StatusCode: resp.StatusCode,
				RequestID:  rid,
				Body:       string(snippet),
			}
		}
		if int64(len(body)) > maxBody {
			return listcache.Page[T]{}, ErrBodyTooLarge
		}

		var page listcache.Page[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return listcache.Page[T]{}, fmt.Errorf("decode %s: %w", resource, err)
		}
		if page.Items == nil {
			page.Items = []T{}
		}
		return page, nil
	}, nil
}

func encode(p listcache.Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		switch v := p[k].(type) {
		case nil:
		case []string:
			for _, s := range v {
				q.Add(k, s)
			}
		case []any:
			for _, s := range v {
				q.Add(k, fmt.Sprint(s))
			}
		default:
			q.Add(k, fmt.Sprint(v))
		}
	}
	return q.Encode()
}

package restfetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/listcache"
)

type contact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestFetchDecodesPage(t *testing.T) {
	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"Ada"},{"id":"2","name":"Bea"}],"total":2}`))
	}))
	defer srv.Close()

	fetch, err := New[contact](Config{BaseURL: srv.URL + "/", Header: http.Header{"Authorization": {"Bearer t"}}}, "contacts")
	require.NoError(t, err)

	page, err := fetch(context.Background(), listcache.Params{
		"page": 1, "limit": 25, "status": "ACTIVE", "tags": []string{"a", "b"}, "q": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []contact{{ID: "1", Name: "Ada"}, {ID: "2", Name: "Bea"}}, page.Items)

	got := <-reqs
	assert.Equal(t, "/api/contacts", got.URL.Path)
	assert.Equal(t, "limit=25&page=1&status=ACTIVE&tags=a&tags=b", got.URL.RawQuery)
	assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	_, err = uuid.Parse(got.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "request id is a uuid")
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	fetch, err := New[contact](Config{BaseURL: srv.URL}, "budgets")
	require.NoError(t, err)

	_, err = fetch(context.Background(), listcache.Params{"page": 1})
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Contains(t, se.Body, "upstream exploded")
	assert.NotEmpty(t, se.RequestID)
}

func TestFetchEmptyDataIsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0}`))
	}))
	defer srv.Close()

	fetch, err := New[contact](Config{BaseURL: srv.URL}, "contacts")
	require.NoError(t, err)
	page, err := fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"total":0,"pad":"` + strings.Repeat("x", 100) + `"}`))
	}))
	defer srv.Close()

	fetch, err := New[contact](Config{BaseURL: srv.URL, MaxBody: 32}, "contacts")
	require.NoError(t, err)
	_, err = fetch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchHonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	fetch, err := New[contact](Config{BaseURL: srv.URL}, "contacts")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetch(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New[contact](Config{BaseURL: "/api"}, "contacts")
	assert.Error(t, err)
}

func TestQueryOverHTTP(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"1"}],"total":1}`))
	}))
	defer srv.Close()

	fetch, err := New[contact](Config{BaseURL: srv.URL}, "contacts")
	require.NoError(t, err)
	q, err := listcache.New(listcache.Options[contact]{Resource: "contacts", Fetch: fetch, RetryDelay: -1})
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Load(context.Background()))
	st := q.State()
	assert.Equal(t, int32(3), calls.Load())
	assert.Empty(t, st.Error)
	assert.Len(t, st.Items, 1)
}

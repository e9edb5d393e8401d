package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"
)

// DecodeJSON decodes JSON from a reader
func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// HealthServer is a test HTTP endpoint that counts requests
type HealthServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns the number of requests served
func (s *HealthServer) Hits() int64 {
	return s.hits.Load()
}

// NewHealthServer answers every request with status after delay. The delay
// is cut short when the client goes away.
func NewHealthServer(status int, delay time.Duration) *HealthServer {
	hs := &HealthServer{}
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.hits.Add(1)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(status)
	}))
	return hs
}

// ClosedURL returns a URL nothing listens on
func ClosedURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

package models

import (
	"net/http"
	"time"
)

// NewPooledHTTPClient returns an *http.Client tuned for many short-lived
// calls to a single backend host: a bounded idle-connection pool and a hard
// per-call timeout.
func NewPooledHTTPClient(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        poolSize,
			MaxIdleConnsPerHost: poolSize,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

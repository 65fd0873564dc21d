package telegram

import (
	"errors"
	"net"
	"net/url"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "timeout", err: timeoutErr{}, want: true},
		{name: "dial op", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "read op", err: &net.OpError{Op: "read", Err: errors.New("reset")}, want: false},
		{name: "url wrapped timeout", err: &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, want: true},
		{name: "url wrapped plain", err: &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: errors.New("boom")}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRetry(tc.err); got != tc.want {
				t.Fatalf("shouldRetry(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestBuildHTTPClientTimeouts(t *testing.T) {
	client := BuildHTTPClient()
	if client.Timeout != 30*time.Second {
		t.Fatalf("client timeout = %v", client.Timeout)
	}
	rt, ok := client.Transport.(*retryTransport)
	if !ok {
		t.Fatalf("transport type = %T", client.Transport)
	}
	if rt.maxRetries != defaultRetryAttempts {
		t.Fatalf("retries = %d", rt.maxRetries)
	}
}

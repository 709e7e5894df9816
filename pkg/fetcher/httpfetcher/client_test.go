package httpfetcher_test

import (
	"bucketscan/pkg/fetcher/httpfetcher"
	"bucketscan/pkg/serrors"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_Get_SendsBrowserHeaders(t *testing.T) {
	c := httpfetcher.New(httpfetcher.Options{
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "a.example.com", r.URL.Host)
			require.Equal(t, httpfetcher.DefaultUserAgent, r.Header.Get("User-Agent"))
			require.NotEmpty(t, r.Header.Get("Accept"))
			require.NotEmpty(t, r.Header.Get("Accept-Language"))
			require.Empty(t, r.Header.Get("Cookie"))

			return &http.Response{
				StatusCode: http.StatusNotFound,
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader("<Error><Code>NoSuchBucket</Code></Error>")),
			}, nil
		}),
	})

	resp, err := c.Get(context.Background(), "http://a.example.com")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "<Error><Code>NoSuchBucket</Code></Error>", string(resp.Body))
}

func TestClient_Get_CustomUserAgent(t *testing.T) {
	c := httpfetcher.New(httpfetcher.Options{
		UserAgent: "probe/1.0",
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "probe/1.0", r.Header.Get("User-Agent"))

			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
		}),
	})

	_, err := c.Get(context.Background(), "http://a.example.com")
	require.NoError(t, err)
}

func TestClient_Get_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	c := httpfetcher.New(httpfetcher.Options{MaxBodyBytes: 10})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, resp.Body, 10)
}

func TestClient_Get_TooManyRedirects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	c := httpfetcher.New(httpfetcher.Options{MaxRedirects: 3})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrTooManyRedirects)
	require.Equal(t, int32(3), hits.Load())
}

func TestClient_Get_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := httpfetcher.New(httpfetcher.Options{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrTimeout)
}

func TestClient_Get_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := httpfetcher.New(httpfetcher.Options{Timeout: time.Second})
	_, err := c.Get(context.Background(), addr)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrConnect)
}

func TestClient_Get_ServerDisconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}))
	defer srv.Close()

	c := httpfetcher.New(httpfetcher.Options{Timeout: time.Second})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrServerDisconnected)
}

func TestClient_Get_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, buf, err := hj.Hijack()
		require.NoError(t, err)
		_, _ = buf.WriteString("HTTP/1.1 404 Not Found\r\nContent-Length: 100\r\n\r\npartial")
		_ = buf.Flush()
		_ = conn.Close()
	}))
	defer srv.Close()

	c := httpfetcher.New(httpfetcher.Options{Timeout: time.Second})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrServerDisconnected)
}

func TestClient_Get_InvalidURL(t *testing.T) {
	c := httpfetcher.New(httpfetcher.Options{})
	_, err := c.Get(context.Background(), "http://exa mple.com")
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrGeneric)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want serrors.Kind
	}{
		{
			name: "nil",
			err:  nil,
			want: serrors.ErrGeneric,
		},
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("get: %w", context.DeadlineExceeded),
			want: serrors.ErrTimeout,
		},
		{
			name: "dial timeout",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded}},
			want: serrors.ErrTimeout,
		},
		{
			name: "lookup failure",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}}},
			want: serrors.ErrConnect,
		},
		{
			name: "connection refused",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}},
			want: serrors.ErrConnect,
		},
		{
			name: "eof before response",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: io.EOF},
			want: serrors.ErrServerDisconnected,
		},
		{
			name: "unexpected eof in body",
			err:  io.ErrUnexpectedEOF,
			want: serrors.ErrServerDisconnected,
		},
		{
			name: "connection reset",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}},
			want: serrors.ErrSocket,
		},
		{
			name: "bare errno",
			err:  fmt.Errorf("write: %w", syscall.EPIPE),
			want: serrors.ErrSocket,
		},
		{
			name: "already classified",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: serrors.With(serrors.ErrTooManyRedirects, "stopped")},
			want: serrors.ErrTooManyRedirects,
		},
		{
			name: "canceled",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled},
			want: serrors.ErrGeneric,
		},
		{
			name: "unknown",
			err:  errors.New("tls: handshake failure"),
			want: serrors.ErrGeneric,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, httpfetcher.Classify(tc.err))
		})
	}
}

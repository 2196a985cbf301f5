package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Options struct {
	PreferIPv4 bool
	Timeout    time.Duration
	UserAgent  string
	Logger     *zap.Logger
}

func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if opts.PreferIPv4 {
				return dialer.DialContext(ctx, "tcp4", addr)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
		// image generation can hold the response headers for a long time
		ResponseHeaderTimeout: 150 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			next:      transport,
			userAgent: opts.UserAgent,
			logger:    logger,
		},
	}
}

type loggingTransport struct {
	next      http.RoundTripper
	userAgent string
	logger    *zap.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	dur := time.Since(start)

	if err != nil {
		t.logger.Warn("upstream request failed",
			zap.String("method", req.Method),
			zap.String("host", req.URL.Host),
			zap.String("path", req.URL.Path),
			zap.Duration("dur", dur),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", dur),
	}
	if resp.StatusCode >= 400 {
		t.logger.Warn("upstream request", fields...)
	} else {
		t.logger.Debug("upstream request", fields...)
	}
	return resp, nil
}

// Package httpclient builds outbound HTTP clients backed by a shared DNS cache.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/dnscache"
)

var (
	resolverOnce sync.Once
	dnsResolver  *dnscache.Resolver
)

// Resolver returns the process-wide DNS cache, starting its refresh loop on first use.
func Resolver() *dnscache.Resolver {
	resolverOnce.Do(func() {
		dnsResolver = &dnscache.Resolver{}
		go func() {
			t := time.NewTicker(5 * time.Minute)
			defer t.Stop()
			for range t.C {
				dnsResolver.Refresh(true)
			}
		}()
	})
	return dnsResolver
}

// Options configures a client.
type Options struct {
	Timeout             time.Duration // per attempt
	RetryMax            int           // 0 disables retries
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// DefaultOptions returns options suitable for a single-attempt provider call.
func DefaultOptions(timeout time.Duration) Options {
	return Options{
		Timeout:             timeout,
		RetryMax:            0,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Transport returns an http.Transport that resolves hosts through the DNS cache.
func Transport(opts Options) *http.Transport {
	resolver := Resolver()
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network string, addr string) (conn net.Conn, err error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}

			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}

			for _, ip := range ips {
				var dialer net.Dialer
				conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					break
				}
			}

			return
		},
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
	}
}

// New returns a retryablehttp.Client using the cached-DNS transport.
func New(opts Options) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Transport: Transport(opts),
		Timeout:   opts.Timeout,
	}
	client.RetryMax = opts.RetryMax
	client.Logger = nil
	// Non-2xx responses are returned to the caller instead of being turned into errors.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// NewStandard returns a plain *http.Client view of New.
func NewStandard(opts Options) *http.Client {
	return New(opts).StandardClient()
}

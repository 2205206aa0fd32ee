// Package imagefetch downloads listing photos from remote URLs.
package imagefetch

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"mars_poster/internal/adapters/observability"
	"mars_poster/internal/domain"
)

const maxAttempts = 4

type Client struct {
	hc       *http.Client
	rl       *rate.Limiter
	maxBytes int64
}

// New builds a fetcher. Unless allowPrivate is set, connections to
// loopback, private, link-local and unspecified addresses are refused at
// dial time, which covers redirects as well.
func New(rps int, maxBytes int64, allowPrivate bool) *Client {
	if rps <= 0 {
		rps = 5
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		d.Control = publicOnly
		tr.Proxy = nil
	}
	tr.DialContext = d.DialContext
	return &Client{
		hc:       &http.Client{Timeout: 20 * time.Second, Transport: tr},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		maxBytes: maxBytes,
	}
}

var (
	ErrBadURL         = errors.New("image url must be absolute http(s)")
	ErrBlockedAddress = fmt.Errorf("image host is not a public address: %w", ErrBadURL)
)

// sharedAddrSpace is the carrier-grade NAT range (RFC 6598).
var sharedAddrSpace = netip.MustParsePrefix("100.64.0.0/10")

// publicOnly is a net.Dialer Control hook. address is the resolved ip:port.
func publicOnly(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("dial %s %s: %w", network, address, ErrBlockedAddress)
	}
	if !publicAddr(ap.Addr()) {
		return fmt.Errorf("dial %s: %w", ap.Addr(), ErrBlockedAddress)
	}
	return nil
}

func publicAddr(a netip.Addr) bool {
	a = a.Unmap()
	switch {
	case !a.IsValid(), a.IsUnspecified(), a.IsLoopback(), a.IsPrivate(),
		a.IsLinkLocalUnicast(), a.IsLinkLocalMulticast(),
		a.IsInterfaceLocalMulticast(), a.IsMulticast():
		return false
	}
	return !sharedAddrSpace.Contains(a)
}

// FetchImage GETs raw with client-side rate limiting and retries on 429 and
// transient 5xx, honoring Retry-After when provided.
func (c *Client) FetchImage(ctx context.Context, raw string) ([]byte, string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", ErrBadURL
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, "", err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("Accept", "image/*")
		req.Header.Set("User-Agent", "mars-poster/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("imagefetch", u.Host, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			if errors.Is(err, ErrBlockedAddress) {
				return nil, "", ErrBlockedAddress
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", lastErr
		}
		observability.ObserveExternal("imagefetch", u.Host, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			defer resp.Body.Close()
			ct := resp.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "application/octet-stream") {
				return nil, "", fmt.Errorf("content-type %q: %w", ct, domain.ErrBadImage)
			}
			b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
			if err != nil {
				return nil, "", err
			}
			if int64(len(b)) > c.maxBytes {
				return nil, "", domain.ErrImageTooLarge
			}
			return b, ct, nil

		case http.StatusNotFound, http.StatusGone:
			resp.Body.Close()
			return nil, "", fmt.Errorf("image %s: %w", u.Redacted(), domain.ErrNotFound)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, "", fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, "", lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// Package fetch downloads boundary and fault reference data from HTTP and
// FTP mirrors, pacing requests per host.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Fetcher.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	RatePerSec float64
	Burst      int
}

// Fetcher downloads reference-data files. One rate limiter is kept per host
// so mirrors are not hammered when several collections live on one server.
type Fetcher struct {
	opts   Options
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 2
	}
	if opts.Burst == 0 {
		opts.Burst = 1
	}
	return &Fetcher{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		limiters: make(map[string]*rate.Limiter),
	}
}

// Download retrieves rawURL to dest. The scheme selects the transport:
// http/https or ftp.
func (f *Fetcher) Download(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrapf(err, "fetch: parse url %s", rawURL)
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return eris.Wrap(err, "fetch: rate limit wait")
	}

	switch u.Scheme {
	case "http", "https":
		return f.downloadHTTP(ctx, rawURL, dest)
	case "ftp":
		return f.downloadFTP(ctx, rawURL, dest)
	default:
		return eris.Errorf("fetch: unsupported scheme %q", u.Scheme)
	}
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.opts.RatePerSec), f.opts.Burst)
		f.limiters[host] = l
	}
	return l
}

func (f *Fetcher) downloadHTTP(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "fetch: build request")
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "fetch: http get")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fetch: download returned status %d", resp.StatusCode)
	}

	n, err := writeFile(dest, resp.Body)
	if err != nil {
		return err
	}

	zap.L().Info("fetch: downloaded",
		zap.String("url", rawURL),
		zap.String("dest", dest),
		zap.Int64("bytes", n),
	)
	return nil
}

func writeFile(dest string, r io.Reader) (int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, eris.Wrapf(err, "fetch: create %s", dest)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, r)
	if err != nil {
		return n, eris.Wrapf(err, "fetch: write %s", dest)
	}
	return n, nil
}

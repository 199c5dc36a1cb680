package fetch

import (
	"context"
	"net"
	"net/url"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "fetch: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetch: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("fetch: empty path in ftp url")
	}

	return host, path, nil
}

// downloadFTP retrieves an FTP URL to dest using anonymous login.
func (f *Fetcher) downloadFTP(ctx context.Context, rawURL, dest string) error {
	host, path, err := parseFTPURL(rawURL)
	if err != nil {
		return err
	}

	zap.L().Debug("fetch: ftp connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "fetch: ftp dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return eris.Wrap(err, "fetch: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return eris.Wrap(err, "fetch: ftp retrieve")
	}
	defer resp.Close() //nolint:errcheck

	n, err := writeFile(dest, resp)
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

package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// maxDownloadSize caps a plugin download.
const maxDownloadSize = 64 << 20

// downloadFile fetches rawURL into dir and returns the written file path.
// The file name comes from Content-Disposition, then the URL path.
func downloadFile(ctx context.Context, client *http.Client, rawURL, dir string, timeout time.Duration) (string, error) {
	if client == nil {
		client = cleanhttp.DefaultClient()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "sindri/"+HostVersion)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("downloading %s timed out after %s: %w", rawURL, timeout, ErrTimeout)
		}
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %s", rawURL, resp.Status)
	}

	dst := filepath.Join(dir, downloadName(rawURL, resp.Header.Get("Content-Disposition")))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxDownloadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("downloading %s timed out after %s: %w", rawURL, timeout, ErrTimeout)
		}
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	if n > maxDownloadSize {
		return "", fmt.Errorf("downloading %s: file exceeds %d bytes", rawURL, maxDownloadSize)
	}
	return dst, nil
}

func downloadName(rawURL, disposition string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
			return name
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return "download"
}

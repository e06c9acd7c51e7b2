package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Downloader fetches a URL over HTTP(S) and stores the body in a directory.
type Downloader struct {
	mu      sync.RWMutex
	dir     string
	keep    bool
	timeout time.Duration

	// transport, when set, replaces both built-in transports.
	transport http.RoundTripper

	// verify and skipVerify are shared by every probe so that keep-alive
	// connections are reused.
	verify     *http.Transport
	skipVerify *http.Transport
}

// DownloadOption configures a Downloader.
type DownloadOption func(*Downloader)

// WithDownloadTimeout bounds the whole download.
func WithDownloadTimeout(d time.Duration) DownloadOption {
	return func(dl *Downloader) { dl.timeout = d }
}

// WithTransport replaces the HTTP transport. IgnoreSSLError is not applied
// to a replaced transport.
func WithTransport(rt http.RoundTripper) DownloadOption {
	return func(dl *Downloader) { dl.transport = rt }
}

// NewDownloader stores downloads in dir. Files are deleted after the probe
// unless keep is set.
func NewDownloader(dir string, keep bool, opts ...DownloadOption) *Downloader {
	dl := &Downloader{dir: dir, keep: keep, timeout: 5 * time.Minute}
	for _, opt := range opts {
		opt(dl)
	}
	if dl.transport == nil {
		dl.verify = http.DefaultTransport.(*http.Transport).Clone()
		dl.skipVerify = http.DefaultTransport.(*http.Transport).Clone()
		dl.skipVerify.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // ignore_ssl_error is set per task
	}
	return dl
}

// CloseIdleConnections closes the idle keep-alive connections of both
// transports.
func (dl *Downloader) CloseIdleConnections() {
	if dl.transport != nil {
		if c, ok := dl.transport.(interface{ CloseIdleConnections() }); ok {
			c.CloseIdleConnections()
		}
		return
	}
	dl.verify.CloseIdleConnections()
	dl.skipVerify.CloseIdleConnections()
}

// Configure changes the target directory and keep flag for later probes.
func (dl *Downloader) Configure(dir string, keep bool) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.dir = dir
	dl.keep = keep
}

// Dir returns the directory downloads are written to.
func (dl *Downloader) Dir() string {
	dl.mu.RLock()
	defer dl.mu.RUnlock()
	return dl.dir
}

func (dl *Downloader) client(ignoreSSLError bool) *http.Client {
	var rt http.RoundTripper
	switch {
	case dl.transport != nil:
		rt = dl.transport
	case ignoreSSLError:
		rt = dl.skipVerify
	default:
		rt = dl.verify
	}
	return &http.Client{Timeout: dl.timeout, Transport: rt}
}

// Probe downloads task.Address. Any non-2xx status is a failure.
func (dl *Downloader) Probe(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result {
	dl.mu.RLock()
	dir, keep := dl.dir, dl.keep
	dl.mu.RUnlock()

	start := time.Now()
	fail := func(format string, args ...any) Result {
		return Result{Message: "Download failed: " + fmt.Sprintf(format, args...), Duration: time.Since(start)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.Address, nil)
	if err != nil {
		return fail("%v", err)
	}
	resp, err := dl.client(data.IgnoreSSLError).Do(req)
	if err != nil {
		return fail("%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail("server returned %s", resp.Status)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail("creating download dir: %v", err)
	}
	target := freeName(dir, fileNameFor(task.Address))
	f, err := os.Create(target)
	if err != nil {
		return fail("%v", err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	elapsed := time.Since(start)

	if !keep || copyErr != nil || closeErr != nil {
		os.Remove(target)
	}
	if copyErr != nil {
		return Result{Message: fmt.Sprintf("Download failed after %s: %v", humanize.Bytes(uint64(n)), copyErr), Duration: elapsed, Bytes: n}
	}
	if closeErr != nil {
		return fail("%v", closeErr)
	}

	msg := fmt.Sprintf("Downloaded %s in %s (%s/s)", humanize.Bytes(uint64(n)), elapsed.Round(time.Millisecond), throughput(n, elapsed))
	if keep {
		msg += ", stored as " + filepath.Base(target)
	}
	return Result{Success: true, Message: msg, Duration: elapsed, Bytes: n}
}

func throughput(n int64, d time.Duration) string {
	if d <= 0 {
		return humanize.Bytes(uint64(n))
	}
	return humanize.Bytes(uint64(float64(n) / d.Seconds()))
}

// fileNameFor returns the last path element of the URL or a generated name.
func fileNameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		base := path.Base(u.Path)
		if base != "." && base != "/" && base != "" && !strings.ContainsAny(base, `\:`) {
			return base
		}
	}
	return "download-" + uuid.NewString()
}

// freeName returns dir/name, adding a counter before the extension when
// the file already exists.
func freeName(dir, name string) string {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, stem+"-"+strconv.Itoa(i)+ext)
	}
}

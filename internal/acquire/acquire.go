// Package acquire resolves a user-supplied media source into a durable
// object-store URL, trying an ordered list of strategies with bounded
// retries.
package acquire

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/metrics"
	"github.com/lost-pika/backend-ai-subtitler/internal/store"
)

// Strategy names the acquisition path that produced an outcome.
type Strategy string

const (
	StrategyExtractor       Strategy = "extractor"
	StrategyDirectFetch     Strategy = "direct-fetch"
	StrategyStreamUpload    Strategy = "stream-upload"
	StrategyDownloadUpload  Strategy = "download-then-upload"
	StrategyLocalFileUpload Strategy = "local-file-upload"
)

// Outcome describes a successful acquisition.
type Outcome struct {
	RemoteURL string
	PublicID  string
	Strategy  Strategy
	Attempts  int
}

// Error is returned when every strategy has exhausted its budget. It keeps
// the last underlying cause and the total attempt count.
type Error struct {
	Source   string
	Attempts int
	Last     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("media acquisition failed after %d attempts for %s: %v", e.Attempts, e.Source, e.Last)
}

func (e *Error) Unwrap() error { return e.Last }

func record(strategy Strategy, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	metrics.AcquisitionAttemptsTotal.WithLabelValues(string(strategy), result).Inc()
}

// Options configure an Acquirer. Zero values fall back to the defaults
// below.
type Options struct {
	MaxDownloadBytes int64         // byte cap for the disk-download fallback
	DownloadTimeout  time.Duration // per-download deadline
	StreamRetries    int           // attempts for the streaming strategy
	TempDir          string        // where partial downloads are staged
}

const (
	defaultMaxDownloadBytes = 800 << 20 // 800 MB
	defaultDownloadTimeout  = 2 * time.Minute
	defaultStreamRetries    = 3
	maxBackoffJitter        = 500 * time.Millisecond
)

// Acquirer turns URLs and local files into object-store assets.
type Acquirer struct {
	store     store.ObjectStore
	extractor *Extractor
	client    *http.Client
	opts      Options
	log       zerolog.Logger

	// sleep is replaceable in tests so backoff does not slow them down.
	sleep func(context.Context, time.Duration) error
}

// New creates an Acquirer. extractor may be nil when no extraction tool is
// installed; hosted-video URLs then fall through to the generic strategies.
func New(s store.ObjectStore, extractor *Extractor, opts Options, log zerolog.Logger) *Acquirer {
	if opts.MaxDownloadBytes <= 0 {
		opts.MaxDownloadBytes = defaultMaxDownloadBytes
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = defaultDownloadTimeout
	}
	if opts.StreamRetries <= 0 {
		opts.StreamRetries = defaultStreamRetries
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Acquirer{
		store:     s,
		extractor: extractor,
		// One client for all attempts: keep-alive connections amortize
		// TLS/TCP setup across retries.
		client: &http.Client{},
		opts:   opts,
		log:    log.With().Str("component", "acquirer").Logger(),
		sleep:  sleepCtx,
	}
}

// AcquireFile uploads a local media file to the object store.
func (a *Acquirer) AcquireFile(ctx context.Context, path string) (*Outcome, error) {
	asset, err := a.store.UploadLocalFile(ctx, path, store.UploadOptions{Folder: "media"})
	record(StrategyLocalFileUpload, err)
	if err != nil {
		return nil, &Error{Source: path, Attempts: 1, Last: err}
	}
	return &Outcome{
		RemoteURL: asset.SecureURL,
		PublicID:  asset.PublicID,
		Strategy:  StrategyLocalFileUpload,
		Attempts:  1,
	}, nil
}

// AcquireURL resolves a remote URL into an object-store asset, walking the
// strategy ladder: extractor (hosted video), store-side fetch, streaming
// download with retry, capped disk download.
func (a *Acquirer) AcquireURL(ctx context.Context, rawURL string) (*Outcome, error) {
	attempts := 0
	mediaURL := rawURL

	// 1. Hosted-video URLs go through the extraction tool first. A local
	// file result short-circuits to an upload; a direct media URL feeds the
	// remaining strategies.
	if a.extractor != nil && IsHostedVideo(rawURL) {
		attempts++
		res, err := a.extractor.Extract(ctx, rawURL)
		switch {
		case err != nil:
			record(StrategyExtractor, err)
			a.log.Warn().Err(err).Str("url", rawURL).Msg("extractor failed, trying generic strategies")
		case res.LocalPath != "":
			defer os.Remove(res.LocalPath)
			asset, upErr := a.store.UploadLocalFile(ctx, res.LocalPath, store.UploadOptions{Folder: "media"})
			record(StrategyExtractor, upErr)
			if upErr != nil {
				a.log.Warn().Err(upErr).Msg("upload of extracted file failed, trying generic strategies")
				break
			}
			return &Outcome{
				RemoteURL: asset.SecureURL,
				PublicID:  asset.PublicID,
				Strategy:  StrategyExtractor,
				Attempts:  attempts,
			}, nil
		case res.DirectURL != "":
			mediaURL = res.DirectURL
		}
	}

	// 2. Store-side fetch: the bucket pulls the URL itself, no local
	// bandwidth spent.
	attempts++
	asset, err := a.store.FetchRemoteURL(ctx, mediaURL, store.UploadOptions{Folder: "media"})
	record(StrategyDirectFetch, err)
	if err == nil {
		return &Outcome{
			RemoteURL: asset.SecureURL,
			PublicID:  asset.PublicID,
			Strategy:  StrategyDirectFetch,
			Attempts:  attempts,
		}, nil
	}
	a.log.Warn().Err(err).Str("url", mediaURL).Msg("store-side fetch failed, streaming locally")

	// 3. Streaming download piped straight into the store, with backoff.
	for attempt := 1; attempt <= a.opts.StreamRetries; attempt++ {
		attempts++
		outcome, err := a.streamOnce(ctx, mediaURL)
		record(StrategyStreamUpload, err)
		if err == nil {
			outcome.Attempts = attempts
			return outcome, nil
		}
		a.log.Warn().Err(err).Int("attempt", attempt).Str("url", mediaURL).Msg("streaming upload failed")

		if attempt < a.opts.StreamRetries {
			if err := a.sleep(ctx, backoff(attempt)); err != nil {
				return nil, &Error{Source: rawURL, Attempts: attempts, Last: err}
			}
		}
	}

	// 4. Full download to disk under the byte cap, then upload.
	attempts++
	outcome, err := a.downloadThenUpload(ctx, mediaURL)
	record(StrategyDownloadUpload, err)
	if err != nil {
		return nil, &Error{Source: rawURL, Attempts: attempts, Last: err}
	}
	outcome.Attempts = attempts
	return outcome, nil
}

// streamOnce pipes one HTTP GET body directly into the store's streaming
// upload. Any network, status or stream error fails the attempt.
func (a *Acquirer) streamOnce(ctx context.Context, url string) (*Outcome, error) {
	dlCtx, cancel := context.WithTimeout(ctx, a.opts.DownloadTimeout)
	defer cancel()

	resp, err := a.get(dlCtx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	asset, err := a.store.UploadStream(dlCtx, resp.Body, store.UploadOptions{
		Folder:      "media",
		ContentType: resp.Header.Get("Content-Type"),
	})
	if err != nil {
		return nil, fmt.Errorf("stream upload: %w", err)
	}

	return &Outcome{
		RemoteURL: asset.SecureURL,
		PublicID:  asset.PublicID,
		Strategy:  StrategyStreamUpload,
	}, nil
}

// downloadThenUpload stages the payload on disk under the byte cap, then
// uploads the file. The partial file is deleted on every failure path.
func (a *Acquirer) downloadThenUpload(ctx context.Context, url string) (*Outcome, error) {
	dlCtx, cancel := context.WithTimeout(ctx, a.opts.DownloadTimeout)
	defer cancel()

	resp, err := a.get(dlCtx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Cap check before any byte lands on disk.
	if resp.ContentLength > a.opts.MaxDownloadBytes {
		return nil, fmt.Errorf("remote file too large: %d bytes exceeds cap of %d", resp.ContentLength, a.opts.MaxDownloadBytes)
	}

	tmpPath := filepath.Join(a.opts.TempDir, "acquire-"+uuid.NewString())
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpPath)

	// +1 so a lying Content-Length header is still caught post-download.
	written, err := io.Copy(f, io.LimitReader(resp.Body, a.opts.MaxDownloadBytes+1))
	closeErr := f.Close()
	if err != nil {
		return nil, fmt.Errorf("download to disk: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close temp file: %w", closeErr)
	}
	if written > a.opts.MaxDownloadBytes {
		return nil, fmt.Errorf("download exceeded cap of %d bytes", a.opts.MaxDownloadBytes)
	}
	if written == 0 {
		return nil, fmt.Errorf("downloaded empty payload from %s", url)
	}

	asset, err := a.store.UploadLocalFile(ctx, tmpPath, store.UploadOptions{
		Folder:      "media",
		ContentType: resp.Header.Get("Content-Type"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload downloaded file: %w", err)
	}

	return &Outcome{
		RemoteURL: asset.SecureURL,
		PublicID:  asset.PublicID,
		Strategy:  StrategyDownloadUpload,
	}, nil
}

// get opens a streaming GET and validates status and content length.
func (a *Acquirer) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	if resp.ContentLength == 0 {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: empty response body", url)
	}

	return resp, nil
}

// backoff returns 2^attempt seconds plus up to 500ms of jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	return base + time.Duration(rand.Int64N(int64(maxBackoffJitter)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsHostedVideo reports whether the URL matches a known video-hosting
// pattern that the extraction tool understands.
func IsHostedVideo(url string) bool {
	lowered := strings.ToLower(url)
	for _, host := range hostedVideoPatterns {
		if strings.Contains(lowered, host) {
			return true
		}
	}
	return false
}

var hostedVideoPatterns = []string{
	"youtube.com/",
	"youtu.be/",
	"vimeo.com/",
	"dailymotion.com/",
	"twitch.tv/",
}

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultExtractorBinary is the media extraction tool invoked for
// hosted-video URLs.
const DefaultExtractorBinary = "yt-dlp"

// ExtractResult is what the extraction tool produced: either a direct media
// URL usable by the remaining strategies, or a file already on local disk.
// Exactly one field is set. The caller owns (and must remove) LocalPath.
type ExtractResult struct {
	DirectURL string
	LocalPath string
}

// Extractor wraps the external media extraction subprocess.
type Extractor struct {
	binary  string
	tempDir string
	log     zerolog.Logger
}

// NewExtractor creates an extractor using the given binary name or path.
// Empty binary falls back to DefaultExtractorBinary.
func NewExtractor(binary, tempDir string, log zerolog.Logger) *Extractor {
	if binary == "" {
		binary = DefaultExtractorBinary
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Extractor{
		binary:  binary,
		tempDir: tempDir,
		log:     log.With().Str("component", "extractor").Logger(),
	}
}

// Available reports whether the extraction binary is on PATH.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Extract resolves a hosted-video URL. It first asks the tool for a direct
// media URL (cheap, no download); when that yields nothing it downloads the
// media to a temp file and returns its path.
func (e *Extractor) Extract(ctx context.Context, url string) (*ExtractResult, error) {
	if direct, err := e.directURL(ctx, url); err == nil && direct != "" {
		e.log.Debug().Str("url", url).Msg("extractor resolved direct media URL")
		return &ExtractResult{DirectURL: direct}, nil
	} else if err != nil {
		e.log.Debug().Err(err).Str("url", url).Msg("direct URL resolution failed, downloading")
	}

	path, err := e.download(ctx, url)
	if err != nil {
		return nil, err
	}
	return &ExtractResult{LocalPath: path}, nil
}

// directURL asks the tool to print the media URL without downloading.
func (e *Extractor) directURL(ctx context.Context, url string) (string, error) {
	args := []string{
		"--no-playlist",
		"--get-url",
		"-f", "bestaudio/best",
		url,
	}
	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s --get-url: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
	}

	// The tool prints one URL per requested format; take the first line.
	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	if !strings.HasPrefix(line, "http") {
		return "", fmt.Errorf("%s returned no media URL", e.binary)
	}
	return line, nil
}

// download fetches the media into a temp file and returns its path.
func (e *Extractor) download(ctx context.Context, url string) (string, error) {
	dest := filepath.Join(e.tempDir, "extract-"+uuid.NewString()+".%(ext)s")
	args := []string{
		"--no-playlist",
		"-f", "bestaudio/best",
		"-o", dest,
		"--print", "after_move:filepath",
		"--no-simulate",
		"--quiet",
		url,
	}
	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s download: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", fmt.Errorf("%s reported no output file", e.binary)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("extracted file missing: %w", err)
	}
	return path, nil
}

// Package artwork downloads rendered card artwork into the data directory,
// one card directory per card and one file per variant.
package artwork

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/snaplabel/internal/card"
	"github.com/arcanaland/snaplabel/internal/errors"
	"github.com/arcanaland/snaplabel/internal/logging"
)

const component = "artwork"

// ImageSource opens the rendered image stream of a variant
type ImageSource interface {
	OpenImage(ctx context.Context, variant string) (io.ReadCloser, error)
}

// VariantFailure records why one variant could not be saved
type VariantFailure struct {
	Variant string
	Err     error
}

// ChainResult is the outcome of one card's download chain
type ChainResult struct {
	Card   string
	Saved  []string // Paths written, in chain order
	Failed []VariantFailure
}

// OK reports whether every variant in the chain was saved
func (r ChainResult) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the chain's failures, or returns nil
func (r ChainResult) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Downloader saves artwork under DataDir/<card>/<variant>.<Ext>
type Downloader struct {
	DataDir     string
	Ext         string
	Source      ImageSource
	Concurrency int // Maximum simultaneous chains in DownloadAll; 0 means no limit
	Logger      *slog.Logger
}

// NewDownloader creates a downloader writing into dataDir
func NewDownloader(dataDir, ext string, source ImageSource, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Downloader{
		DataDir: dataDir,
		Ext:     ext,
		Source:  source,
		Logger:  logger,
	}
}

// Path returns the file path of a card variant
func (d *Downloader) Path(cardID, variant string) string {
	return filepath.Join(d.DataDir, cardID, variant+"."+d.Ext)
}

// Download fetches the variants of one card strictly in order. Each variant
// starts only after the previous one settled; a failed variant is recorded and
// the chain moves on to the next.
func (d *Downloader) Download(ctx context.Context, cardID string, variants []string) ChainResult {
	result := ChainResult{Card: cardID}

	queue := append([]string(nil), variants...)
	for len(queue) > 0 {
		variant := queue[0]
		queue = queue[1:]

		path, err := d.save(ctx, cardID, variant)
		if err != nil {
			d.Logger.Debug("variant download failed",
				"card", cardID,
				"variant", variant,
				"error", err)
			result.Failed = append(result.Failed, VariantFailure{Variant: variant, Err: err})
			continue
		}

		d.Logger.Debug("variant saved", "card", cardID, "path", path)
		result.Saved = append(result.Saved, path)
	}

	return result
}

// DownloadAll runs one chain per card concurrently, each seeded with the card's
// base artwork followed by its variants. Results are in card order.
func (d *Downloader) DownloadAll(ctx context.Context, cardIDs []string, variants card.VariantMap) []ChainResult {
	results := make([]ChainResult, len(cardIDs))

	var g errgroup.Group
	if d.Concurrency > 0 {
		g.SetLimit(d.Concurrency)
	}

	for i, cardID := range cardIDs {
		g.Go(func() error {
			results[i] = d.Download(ctx, cardID, variants.Chain(cardID))
			return nil
		})
	}
	_ = g.Wait() // chains record their own failures

	return results
}

// save streams one variant to disk and returns the written path
func (d *Downloader) save(ctx context.Context, cardID, variant string) (string, error) {
	dir := filepath.Join(d.DataDir, cardID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Newf("error creating card directory: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("card", cardID).
			Context("dir", dir).
			Build()
	}

	body, err := d.Source.OpenImage(ctx, variant)
	if err != nil {
		return "", err
	}
	defer body.Close()

	path := d.Path(cardID, variant)
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Newf("error creating image file: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("variant", variant).
			Context("path", path).
			Build()
	}

	_, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		// Don't leave a truncated image behind
		_ = os.Remove(path)
		return "", errors.Newf("error writing image: %w", copyErr).
			Category(errors.CategoryDownload).
			Component(component).
			Context("variant", variant).
			Context("path", path).
			Build()
	}

	return path, nil
}

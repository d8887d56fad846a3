// Package pipeline runs one snaplabel invocation: metadata fetch, class index,
// artwork downloads and bounding box labels. Every failure is recorded in the
// Report and the run continues with whatever it still can do.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arcanaland/snaplabel/internal/artwork"
	"github.com/arcanaland/snaplabel/internal/card"
	"github.com/arcanaland/snaplabel/internal/config"
	"github.com/arcanaland/snaplabel/internal/dataset"
	"github.com/arcanaland/snaplabel/internal/errors"
	"github.com/arcanaland/snaplabel/internal/labels"
	"github.com/arcanaland/snaplabel/internal/logging"
	"github.com/arcanaland/snaplabel/internal/snapapi"
)

const component = "pipeline"

// Source is the remote side of a run
type Source interface {
	FetchCards(ctx context.Context) ([]card.Card, error)
	FetchArtVariants(ctx context.Context) ([]card.ArtVariant, error)
	OpenImage(ctx context.Context, variant string) (io.ReadCloser, error)
}

// Options selects what a run does
type Options struct {
	Predefined  bool   // Write the class index file
	FromDisk    bool   // Build the class index from local card directories
	DatasetYAML bool   // Also write dataset.yaml next to the class index
	Card        string // Single card scope
	All         bool   // All released cards scope
	Images      bool   // Download artwork
	Boxes       bool   // Generate bounding box labels
}

// downloads reports whether artwork should be fetched. A scope given without
// -i or -b means download.
func (o Options) downloads() bool {
	return o.Images || (!o.Boxes && (o.Card != "" || o.All))
}

// Report is the outcome of a run
type Report struct {
	Cards       int      // Released cards fetched
	Variants    int      // Released art variants fetched
	Classes     []string // Class index written, nil when not written
	ClassesPath string
	DatasetPath string
	Downloads   []artwork.ChainResult
	Boxes       []labels.BoxResult
	Errors      []error // Failures outside download chains and label generation
}

// Saved returns the number of images written
func (r Report) Saved() int {
	n := 0
	for _, d := range r.Downloads {
		n += len(d.Saved)
	}
	return n
}

// Failed returns the number of variants that could not be saved
func (r Report) Failed() int {
	n := 0
	for _, d := range r.Downloads {
		n += len(d.Failed)
	}
	return n
}

// Labels returns the number of label files written
func (r Report) Labels() int {
	n := 0
	for _, b := range r.Boxes {
		n += len(b.Labels)
	}
	return n
}

// Err joins every failure of the run, or returns nil
func (r Report) Err() error {
	errs := append([]error(nil), r.Errors...)
	for _, d := range r.Downloads {
		errs = append(errs, d.Err())
	}
	for _, b := range r.Boxes {
		errs = append(errs, b.Err())
	}
	return errors.Join(errs...)
}

// OK reports whether the run had no failures at all
func (r Report) OK() bool {
	return r.Err() == nil
}

// Pipeline wires a source to the downloader and label generator
type Pipeline struct {
	cfg        *config.Config
	source     Source
	downloader *artwork.Downloader
	generator  *labels.Generator
	logger     *slog.Logger
}

// New creates a pipeline for cfg reading from source
func New(cfg *config.Config, source Source, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}

	downloader := artwork.NewDownloader(cfg.DataDir, cfg.ImageExt, source, logger)
	downloader.Concurrency = cfg.Concurrency

	return &Pipeline{
		cfg:        cfg,
		source:     source,
		downloader: downloader,
		generator:  labels.NewGenerator(cfg.DataDir, cfg.ClassesPath(), logger),
		logger:     logger,
	}
}

// Run creates an API client from cfg and runs the pipeline against it
func Run(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) Report {
	client, err := snapapi.NewClient(cfg, snapapi.WithLogger(logger))
	if err != nil {
		return Report{Errors: []error{err}}
	}
	return New(cfg, client, logger).Run(ctx, opts)
}

// Run executes the selected steps in order: metadata, class index, downloads,
// then labels. Labels start only after every download chain settled.
func (p *Pipeline) Run(ctx context.Context, opts Options) Report {
	var report Report

	// cardIDs stays nil when the card list could not be fetched
	var cardIDs []string
	cards, err := p.source.FetchCards(ctx)
	if err != nil {
		p.fail(&report, "card list unavailable", err)
	} else {
		cardIDs = card.IDs(cards)
	}
	report.Cards = len(cardIDs)

	artVariants, err := p.source.FetchArtVariants(ctx)
	if err != nil {
		p.fail(&report, "art variants unavailable", err)
	}
	variants := card.ResolveVariants(artVariants)
	report.Variants = len(artVariants)

	if opts.Predefined {
		p.writeClasses(&report, opts, cardIDs)
	}

	var targets []string
	if opts.Card != "" {
		if !card.Contains(cardIDs, opts.Card) {
			p.fail(&report, "card not recognized", errors.Newf("%q is not recognized as a valid card name", opts.Card).
				Category(errors.CategoryUnknownCard).
				Component(component).
				Context("card", opts.Card).
				Build())
		} else {
			targets = []string{opts.Card}
		}
	}
	if opts.All {
		// A known single card is already one of these; it is fetched once
		targets = cardIDs
	}

	if opts.downloads() && len(targets) > 0 {
		p.logger.Debug("downloading artwork", "cards", len(targets))
		if len(targets) == 1 {
			report.Downloads = []artwork.ChainResult{p.downloader.Download(ctx, targets[0], variants.Chain(targets[0]))}
		} else {
			report.Downloads = p.downloader.DownloadAll(ctx, targets, variants)
		}
	}

	if opts.Boxes {
		classes := p.labelClasses(cardIDs)
		if opts.All && len(targets) == 0 {
			// Card list unavailable; label what the class index file knows
			targets = classes
		}
		for _, cardID := range targets {
			report.Boxes = append(report.Boxes, p.generate(cardID, classes))
		}
	}

	return report
}

// writeClasses persists the class index and, if asked, dataset.yaml
func (p *Pipeline) writeClasses(report *Report, opts Options, cardIDs []string) {
	names := cardIDs
	if opts.FromDisk {
		ds, err := dataset.Load(p.cfg.DataDir)
		if err != nil {
			p.fail(report, "class index skipped", errors.New(err).
				Category(errors.CategoryFileIO).
				Component(component).
				Context("data_dir", p.cfg.DataDir).
				Build())
			return
		}
		names = ds.CardIDs()
	} else if cardIDs == nil {
		// Nothing to index; an empty file would clobber a good one
		p.fail(report, "class index skipped", errors.Newf("no card list to build the class index from").
			Category(errors.CategoryMetadata).
			Component(component).
			Build())
		return
	}

	if err := os.MkdirAll(p.cfg.DataDir, 0755); err != nil {
		p.fail(report, "class index skipped", errors.Newf("error creating data directory: %w", err).
			Category(errors.CategoryFileIO).
			Component(component).
			Context("data_dir", p.cfg.DataDir).
			Build())
		return
	}

	path := p.cfg.ClassesPath()
	if err := labels.WriteClasses(path, names); err != nil {
		p.fail(report, "class index write failed", err)
		return
	}
	report.Classes = names
	report.ClassesPath = path
	p.logger.Debug("class index written", "path", path, "classes", len(names))

	if opts.DatasetYAML {
		dsPath := filepath.Join(p.cfg.DataDir, labels.DatasetFile)
		if err := labels.WriteDataset(dsPath, labels.NewDataset(p.cfg.DataDir, names)); err != nil {
			p.fail(report, "dataset description write failed", err)
			return
		}
		report.DatasetPath = dsPath
		p.logger.Debug("dataset description written", "path", dsPath)
	}
}

// labelClasses returns the class sequence labels are numbered by: the
// persisted class index when present, otherwise the fetched card order.
func (p *Pipeline) labelClasses(cardIDs []string) []string {
	names, err := labels.ReadClasses(p.cfg.ClassesPath())
	if err != nil {
		p.logger.Debug("class index file unreadable, using fetched card order", "error", err)
		return cardIDs
	}
	return names
}

// generate labels one card, failing it when the card has no class
func (p *Pipeline) generate(cardID string, classes []string) labels.BoxResult {
	index := labels.ClassIndex(classes, cardID)
	if index < 0 {
		err := errors.Newf("card %s is not in the class index", cardID).
			Category(errors.CategoryValidation).
			Component(component).
			Context("card", cardID).
			Build()
		p.logger.Debug("labels skipped", "card", cardID, "error", err)
		return labels.BoxResult{Card: cardID, ClassIndex: index, Errors: []error{err}}
	}

	result := p.generator.Generate(cardID, index)
	p.logger.Debug("labels generated", "card", cardID, "class", index, "labels", len(result.Labels))
	return result
}

// fail records a run-level failure
func (p *Pipeline) fail(report *Report, msg string, err error) {
	p.logger.Debug(msg, "error", err)
	report.Errors = append(report.Errors, err)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"imgsearch/internal/downloader"
	"imgsearch/pkg/config"
	"imgsearch/pkg/google"
	"imgsearch/pkg/harvester"
	"imgsearch/pkg/index"
	"imgsearch/pkg/logger"
	"imgsearch/pkg/models"
	"imgsearch/pkg/storage"
)

// Harvester produces the enumerated record list of a query
type Harvester interface {
	Query(ctx context.Context, query string, pageCount int) ([]models.Record, error)
}

// Pipeline orchestrates harvesting, caching and downloading
type Pipeline struct {
	harvester     Harvester
	fetcher       downloader.ImageFetcher
	pagesToQuery  int
	indexFileName string
	logger        logger.Logger
}

// New wires a pipeline from configuration using the HTTP client, the
// .rg_meta extractor and the page harvester
func New(cfg *config.Config, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}

	client := google.NewClient(
		cfg.Search.UserAgent,
		cfg.Search.RequestTimeout,
		cfg.Download.DownloadTimeout,
		log,
	)
	h := harvester.New(client, google.NewMetadataExtractor(log), cfg.Search.BaseURL, log)

	return NewWithDeps(h, client, cfg.Search.PagesToQuery, cfg.Output.IndexFileName, log)
}

// NewWithDeps creates a pipeline from explicit collaborators
func NewWithDeps(
	h Harvester,
	fetcher downloader.ImageFetcher,
	pagesToQuery int,
	indexFileName string,
	log logger.Logger,
) *Pipeline {
	if pagesToQuery <= 0 {
		pagesToQuery = config.DefaultPagesToQuery
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		harvester:     h,
		fetcher:       fetcher,
		pagesToQuery:  pagesToQuery,
		indexFileName: indexFileName,
		logger:        log,
	}
}

// RetrieveAll harvests (or loads from cache) the records of query and
// downloads each of them into outputDir. The returned outcomes are in
// record order. An error is returned only when the directory, the harvest
// or the cache write fails; per-record failures live in the outcomes.
func (p *Pipeline) RetrieveAll(ctx context.Context, query, outputDir string, concurrency int) ([]Outcome, error) {
	log := p.logger.WithFields(map[string]interface{}{
		"query":      query,
		"output_dir": outputDir,
	})

	store, err := storage.NewManager(outputDir)
	if err != nil {
		log.WithError(err).Error("Failed to prepare output directory")
		return nil, err
	}

	records, err := p.loadOrHarvest(ctx, query, outputDir, log)
	if err != nil {
		return nil, err
	}

	return p.download(ctx, query, records, store, concurrency, log), nil
}

func (p *Pipeline) loadOrHarvest(ctx context.Context, query, outputDir string, log logger.Logger) ([]models.Record, error) {
	cache := index.NewManager(outputDir, p.indexFileName, log)

	if cache.Exists() {
		records, err := cache.Load()
		if err != nil {
			log.WithError(err).Error("Failed to load cached search results")
			return nil, err
		}
		return records, nil
	}

	records, err := p.harvester.Query(ctx, query, p.pagesToQuery)
	if err != nil {
		return nil, fmt.Errorf("harvest %q: %w", query, err)
	}

	if err := cache.Save(records); err != nil {
		log.WithError(err).Error("Failed to write search results cache")
		return nil, err
	}

	return records, nil
}

func (p *Pipeline) download(
	ctx context.Context,
	query string,
	records []models.Record,
	store downloader.ImageStorage,
	concurrency int,
	log logger.Logger,
) []Outcome {
	outcomes := make([]Outcome, len(records))
	done := make([]bool, len(records))
	if len(records) == 0 {
		return outcomes
	}

	start := time.Now()
	pool := downloader.NewWorkerPool(ctx, concurrency, p.fetcher, store, log)
	pool.Start()

	log.InfoWithFields("Downloading images", map[string]interface{}{
		"records": len(records),
		"workers": pool.NumWorkers(),
	})

	go func() {
		defer pool.Stop()
		for i, record := range records {
			job := downloader.DownloadJob{
				Position: i,
				Index:    record.Index,
				URL:      record.SourceURL(),
			}
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	for result := range pool.Results() {
		pos := result.Job.Position
		outcomes[pos] = Outcome{
			Position: pos,
			Index:    result.Job.Index,
			Path:     result.Path,
			Bytes:    result.Bytes,
			Err:      result.Err,
		}
		done[pos] = true
		logger.LogDownload(p.logger, query, result.Job.Index, result.Bytes, result.Err)
	}

	// Jobs skipped after cancellation
	for i, ok := range done {
		if ok {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		outcomes[i] = Outcome{Position: i, Index: records[i].Index, Err: fmt.Errorf("download not attempted: %w", err)}
	}

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	log.InfoWithFields("Downloads finished", map[string]interface{}{
		"succeeded": len(outcomes) - failed,
		"failed":    failed,
		"duration":  time.Since(start).String(),
	})

	return outcomes
}

// ErrInvalidQuery is returned for queries that cannot name a subdirectory
var ErrInvalidQuery = errors.New("invalid query")

// ValidateQuery rejects queries that would escape or nest below their
// per-query directory
func ValidateQuery(query string) error {
	switch {
	case strings.TrimSpace(query) == "":
		return fmt.Errorf("%w: empty", ErrInvalidQuery)
	case query == "." || query == "..":
		return fmt.Errorf("%w %q: not a directory name", ErrInvalidQuery, query)
	case strings.ContainsAny(query, `/\`):
		return fmt.Errorf("%w %q: contains a path separator", ErrInvalidQuery, query)
	}
	return nil
}

// Run retrieves every query into its own subdirectory <root>/<query>.
// A failing query is recorded and the next one still runs; cancellation of
// ctx stops the run before the next query starts.
func (p *Pipeline) Run(ctx context.Context, queries []string, root string, concurrency int) []QueryResult {
	results := make([]QueryResult, 0, len(queries))

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			results = append(results, QueryResult{Query: query, Err: err})
			continue
		}

		if err := ValidateQuery(query); err != nil {
			p.logger.WithError(err).WithField("query", query).Error("Query rejected")
			results = append(results, QueryResult{Query: query, Err: err})
			continue
		}

		dir := filepath.Join(root, query)
		outcomes, err := p.RetrieveAll(ctx, query, dir, concurrency)
		if err != nil {
			p.logger.WithError(err).WithField("query", query).Error("Query failed")
		}

		results = append(results, QueryResult{
			Query:    query,
			Dir:      dir,
			Outcomes: outcomes,
			Err:      err,
		})
	}

	return results
}

// Package harvester turns a search query into the indexed list of image
// metadata records found across its result pages.
//
// Pages are fetched one at a time in page order. Any page that fails to load
// aborts the whole harvest; no partial list is returned. Records without a
// source URL are dropped, the survivors are concatenated in page order and
// then within-page order, and only then numbered 0..N-1.
package harvester

import (
	"context"
	"fmt"

	errs "imgsearch/pkg/errors"
	"imgsearch/pkg/google"
	"imgsearch/pkg/logger"
	"imgsearch/pkg/models"
)

// PageFetcher retrieves the text of a result page
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// BlockExtractor pulls raw metadata blocks out of a result page
type BlockExtractor interface {
	Extract(html string) ([]map[string]any, error)
}

// Harvester collects metadata records for a query
type Harvester struct {
	fetcher   PageFetcher
	extractor BlockExtractor
	baseURL   string
	logger    logger.Logger
}

// New creates a harvester that builds page URLs against baseURL
func New(fetcher PageFetcher, extractor BlockExtractor, baseURL string, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Harvester{
		fetcher:   fetcher,
		extractor: extractor,
		baseURL:   baseURL,
		logger:    log,
	}
}

// Query harvests the first pageCount result pages of query
func (h *Harvester) Query(ctx context.Context, query string, pageCount int) ([]models.Record, error) {
	return h.QueryFrom(ctx, query, 0, pageCount)
}

// QueryFrom harvests result pages [startPage, pageCount) of query
func (h *Harvester) QueryFrom(ctx context.Context, query string, startPage, pageCount int) ([]models.Record, error) {
	pages := google.NewPageURLs(h.baseURL, query, pageCount, startPage)
	log := h.logger.WithField("query", query)

	var records []models.Record
	for page := startPage; ; page++ {
		pageURL, ok := pages.Next()
		if !ok {
			break
		}

		log.DebugWithFields("Fetching result page", map[string]interface{}{
			"page": page,
			"url":  pageURL,
		})

		html, err := h.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			log.WithError(err).WithField("page", page).Error("Result page fetch failed")
			return nil, fmt.Errorf("fetch result page %d: %w", page, err)
		}
		if html == "" {
			err := errs.Fetch("unable to fetch HTML: empty response body", 0, nil)
			log.WithError(err).WithField("page", page).Error("Result page fetch failed")
			return nil, fmt.Errorf("fetch result page %d: %w", page, err)
		}

		blocks, err := h.extractor.Extract(html)
		if err != nil {
			// An unparseable page contributes no records
			log.WithError(err).WithField("page", page).Warn("Result page could not be parsed")
			continue
		}

		kept := 0
		for _, block := range blocks {
			record := models.FromRawMap(block)
			if !record.HasURL() {
				continue
			}
			records = append(records, record)
			kept++
		}

		log.DebugWithFields("Result page harvested", map[string]interface{}{
			"page":    page,
			"blocks":  len(blocks),
			"records": kept,
		})
		logger.LogHarvestProgress(h.logger, query, page-startPage+1, pageCount-startPage, len(records))
	}

	models.Enumerate(records)

	log.InfoWithFields("Harvest completed", map[string]interface{}{
		"records": len(records),
	})

	return records, nil
}

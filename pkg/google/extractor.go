package google

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	errs "imgsearch/pkg/errors"
	"imgsearch/pkg/logger"
)

// MetadataSelector matches the elements that embed one JSON block per image
const MetadataSelector = ".rg_meta"

// MetadataExtractor pulls the raw per-image metadata blocks out of a result page
type MetadataExtractor struct {
	logger logger.Logger
}

// NewMetadataExtractor creates an extractor
func NewMetadataExtractor(log logger.Logger) *MetadataExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &MetadataExtractor{logger: log}
}

// Extract returns the decoded metadata blocks in document order.
// Blocks that are not a JSON object are skipped.
func (e *MetadataExtractor) Extract(html string) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.Malformed("failed to parse result page", err)
	}

	var blocks []map[string]any
	doc.Find(MetadataSelector).Each(func(i int, sel *goquery.Selection) {
		block, err := decodeBlock(sel.Text())
		if err != nil {
			e.logger.WarnWithFields("Skipping malformed metadata block", map[string]interface{}{
				"position": i,
				"error":    err.Error(),
			})
			return
		}
		blocks = append(blocks, block)
	})

	return blocks, nil
}

func decodeBlock(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))
	dec.UseNumber()

	var block map[string]any
	if err := dec.Decode(&block); err != nil {
		return nil, errs.Malformed("metadata block is not a JSON object", err)
	}
	if block == nil {
		return nil, errs.Malformed("metadata block is null", nil)
	}
	return block, nil
}

package google

import (
	"fmt"
	"net/url"
)

const (
	// PageSize is the number of results the search engine serves per page
	PageSize = 100

	// searchParams selects the image vertical with the desktop result layout
	searchParams = "site=&tbm=isch&source=hp&biw=1280&bih=899"
)

// PageURLs is a single-pass sequence of result page URLs for one query.
// Pages run over [startPage, maxPages); once drained it stays drained.
type PageURLs struct {
	baseURL  string
	query    string
	current  int
	maxPages int
}

// NewPageURLs creates the URL sequence for a query. Bounds are not validated.
func NewPageURLs(baseURL, query string, maxPages, startPage int) *PageURLs {
	return &PageURLs{
		baseURL:  baseURL,
		query:    url.QueryEscape(query),
		current:  startPage,
		maxPages: maxPages,
	}
}

// Next returns the next page URL, or false when the sequence is exhausted
func (p *PageURLs) Next() (string, bool) {
	if p.current >= p.maxPages {
		return "", false
	}

	page := p.current
	p.current++

	return p.pageURL(page), true
}

// Remaining reports how many URLs are still to be produced
func (p *PageURLs) Remaining() int {
	if p.current >= p.maxPages {
		return 0
	}
	return p.maxPages - p.current
}

func (p *PageURLs) pageURL(page int) string {
	u := fmt.Sprintf("%s?%s&q=%s", p.baseURL, searchParams, p.query)
	if page != 0 {
		u += fmt.Sprintf("&ijn=%d&start=%d", page, page*PageSize)
	}
	return u
}

package google

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://www.google.com/search"

func drain(p *PageURLs) []string {
	var urls []string
	for u, ok := p.Next(); ok; u, ok = p.Next() {
		urls = append(urls, u)
	}
	return urls
}

func TestPageURLsCount(t *testing.T) {
	tests := []struct {
		maxPages, startPage, want int
	}{
		{6, 0, 6},
		{6, 2, 4},
		{1, 0, 1},
		{3, 3, 0},
		{2, 5, 0},
		{0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("N=%d,S=%d", tt.maxPages, tt.startPage), func(t *testing.T) {
			p := NewPageURLs(testBase, "knife", tt.maxPages, tt.startPage)
			assert.Equal(t, tt.want, p.Remaining())
			assert.Len(t, drain(p), tt.want)
			assert.Zero(t, p.Remaining())
		})
	}
}

func TestPageURLsFirstPageHasNoPagination(t *testing.T) {
	urls := drain(NewPageURLs(testBase, "knife", 1, 0))
	require.Len(t, urls, 1)

	u, err := url.Parse(urls[0])
	require.NoError(t, err)
	q := u.Query()
	assert.False(t, q.Has("ijn"))
	assert.False(t, q.Has("start"))
	assert.Equal(t, "isch", q.Get("tbm"))
	assert.Equal(t, "knife", q.Get("q"))
}

func TestPageURLsPagination(t *testing.T) {
	const start = 1
	urls := drain(NewPageURLs(testBase, "knife", 4, start))
	require.Len(t, urls, 3)

	for k, raw := range urls {
		page := start + k
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(page), u.Query().Get("ijn"))
		assert.Equal(t, fmt.Sprint(page*PageSize), u.Query().Get("start"))
	}
}

func TestPageURLsEncodesQuery(t *testing.T) {
	query := "selfie stick & more/?=#"
	urls := drain(NewPageURLs(testBase, query, 3, 0))
	require.Len(t, urls, 3)

	encoded := "q=" + url.QueryEscape(query)
	for _, raw := range urls {
		assert.Contains(t, raw, encoded)
		assert.NotContains(t, raw, " ")

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, query, u.Query().Get("q"))
	}
	assert.True(t, strings.HasPrefix(urls[0], testBase+"?"))
}

func TestPageURLsSinglePass(t *testing.T) {
	p := NewPageURLs(testBase, "knife", 2, 0)
	assert.Len(t, drain(p), 2)
	assert.Empty(t, drain(p), "a drained sequence does not restart")
}

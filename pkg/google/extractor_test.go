package google

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgsearch/pkg/logger"
)

const resultPage = `<html><body>
<div class="rg_bx">
  <div class="rg_meta notranslate">{"tu":"https://t0.example/1","ow":640,"oh":480,"ity":"jpg"}</div>
</div>
<div class="rg_bx">
  <div class="rg_meta">{not json</div>
</div>
<div class="rg_bx">
  <div class="rg_meta">null</div>
</div>
<div class="other">{"tu":"https://ignored.example"}</div>
<div class="rg_bx">
  <div class="rg_meta">{"pt":"no url here"}</div>
</div>
</body></html>`

func TestExtractSelectsMetadataBlocks(t *testing.T) {
	log := logger.NewTestLogger()
	blocks, err := NewMetadataExtractor(log).Extract(resultPage)
	require.NoError(t, err)

	require.Len(t, blocks, 2)
	assert.Equal(t, "https://t0.example/1", blocks[0]["tu"])
	assert.Equal(t, json.Number("640"), blocks[0]["ow"])
	assert.Equal(t, "no url here", blocks[1]["pt"])

	assert.Len(t, log.GetMessagesByLevel("WARN"), 2, "malformed blocks are reported and skipped")
}

func TestExtractEmptyPage(t *testing.T) {
	blocks, err := NewMetadataExtractor(logger.NewTestLogger()).Extract("<html></html>")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"imgsearch/pkg/pipeline"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuietMode(false)
	})
	return &buf
}

func TestSuccessBar(t *testing.T) {
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/0", SuccessBar(0, 0))
	assert.Equal(t, "[██████████░░░░░░░░░░] 2/4", SuccessBar(2, 4))
	assert.Equal(t, "[████████████████████] 3/3", SuccessBar(3, 3))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1536*1024))
}

func TestSetOutputDisablesColor(t *testing.T) {
	buf := captureOutput(t)
	assert.False(t, ColorEnabled())

	PrintSuccess("ok")
	assert.Equal(t, "ok\n", buf.String())

	SetColorEnabled(true)
	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))
	SetColorEnabled(false)
}

func TestPrintSummary(t *testing.T) {
	buf := captureOutput(t)

	results := []pipeline.QueryResult{
		{Query: "cats", Outcomes: []pipeline.Outcome{{Bytes: 100}, {Bytes: 200}}},
		{Query: "dogs", Outcomes: []pipeline.Outcome{{Bytes: 100}, {Err: errors.New("404")}}},
		{Query: "bad", Err: errors.New("unable to fetch HTML")},
	}

	failures := PrintSummary(results)
	assert.Equal(t, 1, failures)

	text := buf.String()
	assert.Contains(t, text, "[DONE] cats")
	assert.Contains(t, text, "[PARTIAL] dogs")
	assert.Contains(t, text, "[FAILED] bad: unable to fetch HTML")
	assert.Contains(t, text, "queries: 3, images: 3, failed downloads: 1, written: 400 B")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Query", "cats")
	PrintLogo()
	PrintSummary([]pipeline.QueryResult{
		{Query: "cats", Outcomes: []pipeline.Outcome{{Bytes: 1}}},
		{Query: "bad", Err: errors.New("boom")},
	})

	assert.Equal(t, "[FAILED] bad: boom\n", buf.String())
}

package ui

import (
	"fmt"
	"strings"

	"imgsearch/pkg/pipeline"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// SuccessBar renders the share of successful downloads, e.g. [████░░] 4/6
func SuccessBar(succeeded, total int) string {
	filled := 0
	if total > 0 {
		filled = succeeded * barWidth / total
	}
	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, succeeded, total)
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// PrintQueryResult prints one line for a finished query
func PrintQueryResult(r pipeline.QueryResult) {
	if r.Err != nil {
		PrintError(fmt.Sprintf("[FAILED] %s", r.Query), r.Err)
		return
	}
	if IsQuietMode() {
		return
	}

	status := Green("[DONE]")
	if r.Failed() > 0 {
		status = Yellow("[PARTIAL]")
	}
	printf("%s %s %s %s\n",
		status,
		Cyan(r.Query),
		SuccessBar(r.Succeeded(), len(r.Outcomes)),
		Dim(FormatBytes(r.TotalBytes())))
}

// PrintSummary prints the per-query lines and the run totals. It returns
// the number of queries that failed outright.
func PrintSummary(results []pipeline.QueryResult) int {
	var succeeded, failed, queryFailures int
	var total int64

	for _, r := range results {
		PrintQueryResult(r)
		if r.Err != nil {
			queryFailures++
			continue
		}
		succeeded += r.Succeeded()
		failed += r.Failed()
		total += r.TotalBytes()
	}

	if !IsQuietMode() {
		printf("\n%s queries: %d, images: %d, failed downloads: %d, written: %s\n",
			Magenta("[SUMMARY]"),
			len(results),
			succeeded,
			failed,
			FormatBytes(total))
	}

	return queryFailures
}

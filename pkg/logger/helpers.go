package logger

import "fmt"

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	}
}

// LogDownload logs the outcome of a single image download
func LogDownload(l Logger, query string, index int, bytes int64, err error) {
	entry := l.WithFields(map[string]interface{}{
		"query": query,
		"index": index,
	})

	if err != nil {
		entry.WithError(err).Warn("Download failed")
		return
	}
	entry.WithField("bytes", bytes).Debug("Download completed")
}

// LogHarvestProgress logs result page progress for a query
func LogHarvestProgress(l Logger, query string, page, total, records int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(page) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"query":      query,
		"page":       page,
		"total":      total,
		"records":    records,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Harvest progress")
}

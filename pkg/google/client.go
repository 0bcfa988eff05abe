package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "imgsearch/pkg/errors"
	"imgsearch/pkg/logger"
)

// Image is a downloaded image body with the content type the server declared
type Image struct {
	ContentType string
	Data        []byte
}

// Client fetches result pages and image bodies over HTTP
type Client struct {
	pageClient  *http.Client
	imageClient *http.Client
	headers     map[string]string
	logger      logger.Logger
}

// NewClient creates a client. A zero timeout means requests never time out.
func NewClient(userAgent string, pageTimeout, imageTimeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		pageClient:  &http.Client{Timeout: pageTimeout},
		imageClient: &http.Client{Timeout: imageTimeout},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		logger: log,
	}
}

// SetHeader sets a header sent with every result page request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchPage downloads a result page and returns its body as text.
// An empty body is a fetch failure.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", errs.Fetch("failed to create page request", 0, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	body, _, err := c.do(c.pageClient, req)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", errs.Fetch("unable to fetch HTML: empty response body", http.StatusOK, nil)
	}

	return string(body), nil
}

// FetchImage downloads an image body. Only the URL is sent; no page headers.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errs.Fetch("failed to create image request", 0, err)
	}

	body, header, err := c.do(c.imageClient, req)
	if err != nil {
		return nil, err
	}

	return &Image{
		ContentType: header.Get("Content-Type"),
		Data:        body,
	}, nil
}

// do performs the request and reads the whole body of a 2xx response
func (c *Client) do(client *http.Client, req *http.Request) ([]byte, http.Header, error) {
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, nil, errs.Fetch(fmt.Sprintf("GET %s", req.URL.Redacted()), 0, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode,
		float64(time.Since(start).Microseconds())/1000)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, errs.Fetch(
			fmt.Sprintf("GET %s returned status %d", req.URL.Redacted(), resp.StatusCode),
			resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errs.Fetch("failed to read response body", resp.StatusCode, err)
	}

	return body, resp.Header, nil
}

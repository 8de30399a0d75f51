package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docconvert/internal/infra"
)

// ErrMissingBaseURL indicates that the client was configured without an endpoint.
var ErrMissingBaseURL = errors.New("engine: base url is required")

// Options configures the document engine client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls to the external document conversion engine.
// Each call posts one input file to a route and writes the response body,
// the converted artifact, to the requested output path.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient builds an engine client from Options.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-level timeout: the per-job deadline context bounds
		// each call instead.
		httpClient = &http.Client{Timeout: 0}
	}
	return &Client{baseURL: base, httpClient: httpClient, logger: opts.Logger}, nil
}

// Convert uploads the file at inputPath to the given engine route and
// stores the converted result at outputPath.
func (c *Client) Convert(ctx context.Context, route, inputPath, outputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("engine: open input: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", filepath.Base(inputPath))
	if err != nil {
		return fmt.Errorf("engine: create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("engine: read input: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("engine: close form: %w", err)
	}

	url := c.baseURL + "/" + strings.TrimLeft(route, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("engine: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("engine: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("engine: create output: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("engine: save output: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug().
			Str("route", route).
			Int64("bytes", written).
			Dur("elapsed", time.Since(start)).
			Msg("engine conversion done")
	}
	return nil
}

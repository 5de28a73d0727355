// Package imagegen generates scene images through the Pollinations URL
// API: the prompt is path-escaped into the request URL and the response
// body is the image itself.
package imagegen

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"pov-pipeline/fault"
)

const minImageBytes = 100 // smaller responses are error pages, not images

// Client fetches AI-generated images over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	width      int
	height     int
	model      string
	seed       int
	noLogo     bool
	retryDelay time.Duration
}

// New creates a Pollinations client. seed is the base seed; each scene
// index offsets it so reruns stay reproducible per scene.
func New(baseURL string, width, height int, model string, seed int, noLogo bool) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		width:      width,
		height:     height,
		model:      model,
		seed:       seed,
		noLogo:     noLogo,
		retryDelay: 3 * time.Second,
	}
}

// requestURL builds the generation URL for one prompt.
func (c *Client) requestURL(prompt string, index int) string {
	return fmt.Sprintf("%s/%s?width=%d&height=%d&model=%s&seed=%d&nologo=%t",
		c.baseURL, url.PathEscape(prompt), c.width, c.height, c.model, c.seed+index, c.noLogo)
}

// GenerateImage renders prompt to an image file at destPath. Transient
// failures are retried up to 3 times with linear backoff; terminal
// failures abort immediately.
func (c *Client) GenerateImage(ctx context.Context, prompt string, index int, destPath string) error {
	imageURL := c.requestURL(prompt, index)

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = c.download(ctx, imageURL, destPath)
		if err == nil {
			return nil
		}
		if !fault.Retryable(err) {
			return err
		}
		log.Printf("[images] attempt %d failed for scene %d: %v", attempt, index, err)
		select {
		case <-time.After(time.Duration(attempt) * c.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("image generation failed after 3 attempts: %w", err)
}

func (c *Client) download(ctx context.Context, imageURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PovPipeline/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fault.Newf(fault.FromStatus(resp.StatusCode), "imagegen.download", "HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) < minImageBytes {
		return fault.Newf(fault.InvalidResponse, "imagegen.download", "response too small (%d bytes)", len(data))
	}
	return os.WriteFile(destPath, data, 0644)
}

// Package composer submits render jobs to a Creatomate-style template
// rendering API and polls them to completion.
package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"pov-pipeline/fault"
)

// Render job states reported by the API.
const (
	StatusPlanned    = "planned"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Render is one composition job.
type Render struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// Client talks to the rendering API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	templateID   string
	outputFormat string
	pollInterval time.Duration
	pollAttempts int
}

func New(baseURL, apiKey, templateID, outputFormat string, pollInterval time.Duration, pollAttempts int) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      baseURL,
		apiKey:       apiKey,
		templateID:   templateID,
		outputFormat: outputFormat,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

// Compose submits a render from the configured template with the given
// named media sources and text overrides, then waits for it to finish.
// The returned Render carries the output URL.
func (c *Client) Compose(ctx context.Context, media, texts map[string]string) (*Render, error) {
	modifications := make(map[string]string, len(media)+len(texts))
	for k, v := range media {
		modifications[k] = v
	}
	for k, v := range texts {
		modifications[k] = v
	}

	payload, err := json.Marshal(map[string]any{
		"template_id":   c.templateID,
		"output_format": c.outputFormat,
		"modifications": modifications,
	})
	if err != nil {
		return nil, fault.New(fault.Unexpected, "composer.compose", err)
	}

	render, err := c.submit(ctx, payload)
	if err != nil {
		return nil, err
	}
	log.Printf("[compose] render job %s accepted, status: %s", render.ID, render.Status)

	return c.wait(ctx, render)
}

func (c *Client) submit(ctx context.Context, payload []byte) (*Render, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fault.New(fault.Unexpected, "composer.submit", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.New(fault.KindOf(err), "composer.submit", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted {
		return nil, fault.Newf(fault.FromStatus(resp.StatusCode), "composer.submit", "HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.New(fault.Unexpected, "composer.submit", err)
	}
	return decodeRender(body)
}

// decodeRender accepts both a single render object and a one-element list,
// which the API uses interchangeably.
func decodeRender(body []byte) (*Render, error) {
	var list []Render
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return &list[0], nil
	}
	var single Render
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fault.New(fault.InvalidResponse, "composer.decode", err)
	}
	if single.ID == "" {
		return nil, fault.Newf(fault.InvalidResponse, "composer.decode", "response missing render id")
	}
	return &single, nil
}

// wait polls the render until it completes or the attempt budget runs
// out. A render still processing after the budget but with an output URL
// is returned as-is; the download step will confirm availability.
func (c *Client) wait(ctx context.Context, render *Render) (*Render, error) {
	if render.Status == StatusCompleted {
		return render, nil
	}
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		log.Printf("[compose] waiting for render %s (%d/%d)...", render.ID, attempt, c.pollAttempts)
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return nil, fault.New(fault.Timeout, "composer.wait", ctx.Err())
		}

		current, err := c.status(ctx, render.ID)
		if err != nil {
			log.Printf("[compose] status check failed: %v", err)
			continue
		}
		render = current
		if render.Status == StatusCompleted {
			return render, nil
		}
		if render.Status != StatusPlanned && render.Status != StatusProcessing {
			return nil, fault.Newf(fault.InvalidResponse, "composer.wait", "unexpected render status %q", render.Status)
		}
	}
	if render.URL != "" {
		log.Printf("[compose] render %s still %s after polling, trying output URL anyway", render.ID, render.Status)
		return render, nil
	}
	return nil, fault.Newf(fault.Timeout, "composer.wait", "render %s not completed after %d attempts", render.ID, c.pollAttempts)
}

func (c *Client) status(ctx context.Context, id string) (*Render, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, fault.New(fault.Unexpected, "composer.status", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.New(fault.KindOf(err), "composer.status", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.Newf(fault.FromStatus(resp.StatusCode), "composer.status", "HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.New(fault.Unexpected, "composer.status", err)
	}
	return decodeRender(body)
}

// Download fetches the rendered video to destPath.
func (c *Client) Download(ctx context.Context, render *Render, destPath string) error {
	if render.URL == "" {
		return fault.Newf(fault.NotFound, "composer.download", "render %s has no output URL", render.ID)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", render.URL, nil)
	if err != nil {
		return fault.New(fault.Unexpected, "composer.download", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.New(fault.KindOf(err), "composer.download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fault.Newf(fault.FromStatus(resp.StatusCode), "composer.download", "HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.New(fault.Unexpected, "composer.download", err)
	}
	return os.WriteFile(destPath, data, 0644)
}

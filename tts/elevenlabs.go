// Package tts synthesizes narration audio through an ElevenLabs-style
// text-to-speech HTTP API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"pov-pipeline/fault"
)

const minAudioBytes = 100

// Client converts text to spoken audio.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
}

func New(baseURL, apiKey, voiceID string) *Client {
	if voiceID == "" {
		voiceID = "default"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		voiceID:    voiceID,
	}
}

type synthesizeRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Synthesize returns the audio bytes for text in the given language.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, LanguageCode: language})
	if err != nil {
		return nil, fault.New(fault.Unexpected, "tts.synthesize", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/"+c.voiceID, bytes.NewReader(payload))
	if err != nil {
		return nil, fault.New(fault.Unexpected, "tts.synthesize", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.New(fault.KindOf(err), "tts.synthesize", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.Newf(fault.FromStatus(resp.StatusCode), "tts.synthesize", "HTTP %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.New(fault.Unexpected, "tts.synthesize", err)
	}
	if len(audio) < minAudioBytes {
		return nil, fault.Newf(fault.InvalidResponse, "tts.synthesize", "response too small (%d bytes)", len(audio))
	}
	return audio, nil
}

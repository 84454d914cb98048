// SPDX-License-Identifier: MIT

// Package ollama is a minimal client for the Ollama HTTP API, used to
// generate image captions with a local vision model.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable indicates the model service is unreachable or did not
// respond within the configured timeout. Callers use it to distinguish
// "model down" from "bad input".
var ErrUnavailable = errors.New("ollama: service unavailable")

// DefaultPrompt is the style-focused captioning prompt used for training
// dataset preparation.
const DefaultPrompt = `Describe this image focusing on:

- The people: their actions, expressions, demographics, clothing, age ranges
- The setting: location, environment, objects, furniture
- The composition: angles, framing, depth, perspective
- Technical details: lighting quality, camera perspective, indoor/outdoor

Be factual and specific about what is visible. Use generic, descriptive language.
Do NOT describe:
- Artistic style, mood, or aesthetic qualities
- Religious or spiritual context unless explicitly visible
- Editorial or magazine-like qualities
- Any specialized terminology

Provide only the description, nothing else.`

// Client talks to one Ollama instance.
type Client struct {
	base  string
	model string
	http  *http.Client
	probe *http.Client
}

// Options configures a Client.
type Options struct {
	// Timeout bounds one generation call. Vision models are slow; the
	// default is 120s.
	Timeout time.Duration
	// ProbeTimeout bounds the liveness probe. Defaults to 5s.
	ProbeTimeout time.Duration
}

// New creates a client for the Ollama instance at base using model.
func New(base, model string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		model: model,
		http:  &http.Client{Timeout: opts.Timeout},
		probe: &http.Client{Timeout: opts.ProbeTimeout},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Ping checks that the service answers its tags endpoint. A connection
// failure or non-200 answer is reported as ErrUnavailable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/tags", nil)
	if err != nil {
		return err
	}
	res, err := c.probe.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}
	return nil
}

// Models lists the model names the service has available.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.probe.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}
	var p struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	names := make([]string, 0, len(p.Models))
	for _, m := range p.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Caption generates a caption for the given image bytes using prompt. An
// empty prompt selects DefaultPrompt. Timeouts and connection failures are
// reported as ErrUnavailable.
func (c *Client) Caption(ctx context.Context, image []byte, prompt string) (string, error) {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate: unexpected status %d", res.StatusCode)
	}

	var p generateResponse
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	caption := strings.TrimSpace(p.Response)
	if caption == "" {
		return "", fmt.Errorf("generate: empty caption from model %s", c.model)
	}
	return caption, nil
}

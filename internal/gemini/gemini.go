// Package gemini is a client for the Gemini image generation endpoint. Both
// text-to-image and image+text-to-image go through generateContent; the
// response is one or more candidates whose content parts are scanned for the
// first inline image.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/manash/lumina/internal/dataurl"
	"github.com/manash/lumina/pkg/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-image"
	defaultTimeout = 120 * time.Second
)

var (
	ErrAPIKeyRequired = errors.New("API key is required")
	ErrRequestFailed  = errors.New("generation request failed")
	ErrNoCandidate    = errors.New("no candidates returned from generation service")
	ErrNoContent      = errors.New("no content parts found in response")
	ErrNoImageData    = errors.New("no image data found in response")
)

// TextOnlyError is returned when the model answers with text instead of an
// image, typically an explanation of why it refused.
type TextOnlyError struct {
	Text string
}

func (e *TextOnlyError) Error() string {
	return "model returned text instead of image: " + e.Text
}

type apiRequest struct {
	Contents         []apiContent        `json:"contents"`
	GenerationConfig apiGenerationConfig `json:"generationConfig"`
}

type apiContent struct {
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *apiInlineData `json:"inlineData,omitempty"`
}

type apiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type apiGenerationConfig struct {
	ResponseModalities []string        `json:"responseModalities"`
	ImageConfig        *apiImageConfig `json:"imageConfig,omitempty"`
}

type apiImageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

type apiResponse struct {
	Candidates []apiCandidate `json:"candidates"`
	Error      *apiError      `json:"error,omitempty"`
}

type apiCandidate struct {
	Content *apiContent `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	verbose    bool
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TimeoutSec int
	Verbose    bool
}

func New(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		verbose: cfg.Verbose,
	}, nil
}

// GenerateFromText requests a new image for the prompt. The caller guarantees
// a non-empty prompt. The result is a data URI.
func (c *Client) GenerateFromText(ctx context.Context, prompt string, ratio models.AspectRatio) (string, error) {
	parts := []apiPart{{Text: prompt}}
	return c.generate(ctx, parts, ratio)
}

// EditImage requests a modification of an existing image. The source is a
// data URI; its MIME type and payload travel as inline data ahead of the
// instruction text.
func (c *Client) EditImage(ctx context.Context, sourceDataURI, prompt string, ratio models.AspectRatio) (string, error) {
	mime, payload := dataurl.Decode(sourceDataURI)
	parts := []apiPart{
		{InlineData: &apiInlineData{MimeType: mime, Data: payload}},
		{Text: prompt},
	}
	return c.generate(ctx, parts, ratio)
}

// generate issues one request and extracts the image. A failed attempt is
// surfaced immediately, never retried.
func (c *Client) generate(ctx context.Context, parts []apiPart, ratio models.AspectRatio) (string, error) {
	apiReq := &apiRequest{
		Contents: []apiContent{{Parts: parts}},
		GenerationConfig: apiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	if ratio != "" {
		apiReq.GenerationConfig.ImageConfig = &apiImageConfig{AspectRatio: ratio.String()}
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	c.logRequest(http.MethodPost, url, httpReq.Header, jsonData)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.logResponse(resp.StatusCode, resp.Header, body)

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, apiResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	return extractImage(&apiResp)
}

// extractImage scans the first candidate's parts in order and returns the
// first inline image as a data URI. The service may emit explanatory text
// before the image, so text parts only count as failure when no image part
// exists at all.
func extractImage(resp *apiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidate
	}

	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", ErrNoContent
	}

	for _, part := range content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return dataurl.EncodeBase64(part.InlineData.MimeType, part.InlineData.Data), nil
		}
	}

	for _, part := range content.Parts {
		if part.Text != "" {
			return "", &TextOnlyError{Text: part.Text}
		}
	}

	return "", ErrNoImageData
}

func (c *Client) logRequest(method, url string, headers http.Header, body []byte) {
	if !c.verbose {
		return
	}

	fmt.Fprintln(os.Stderr, "--- REQUEST ---")
	fmt.Fprintf(os.Stderr, "%s %s\n", method, url)
	fmt.Fprintln(os.Stderr, "Headers:")
	for key, values := range headers {
		for _, value := range values {
			if strings.ToLower(key) == "x-goog-api-key" {
				value = "[REDACTED]"
			}
			fmt.Fprintf(os.Stderr, "  %s: %s\n", key, value)
		}
	}
	if len(body) > 0 {
		fmt.Fprintln(os.Stderr, "Body:")
		printJSON(truncateInlineData(body))
	}
	fmt.Fprintln(os.Stderr, "---------------")
}

func (c *Client) logResponse(statusCode int, headers http.Header, body []byte) {
	if !c.verbose {
		return
	}

	fmt.Fprintln(os.Stderr, "--- RESPONSE ---")
	fmt.Fprintf(os.Stderr, "Status: %d\n", statusCode)
	fmt.Fprintln(os.Stderr, "Headers:")
	for key, values := range headers {
		for _, value := range values {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", key, value)
		}
	}
	if len(body) > 0 {
		fmt.Fprintln(os.Stderr, "Body:")
		printJSON(truncateInlineData(body))
	}
	fmt.Fprintln(os.Stderr, "----------------")
}

func printJSON(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "  ", "  "); err == nil {
		fmt.Fprintf(os.Stderr, "  %s\n", pretty.String())
	} else {
		fmt.Fprintf(os.Stderr, "  %s\n", string(body))
	}
}

// truncateInlineData shortens base64 image payloads in logged JSON so verbose
// traces stay readable.
func truncateInlineData(body []byte) []byte {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	truncateDataFields(data)

	result, err := json.Marshal(data)
	if err != nil {
		return body
	}
	return result
}

func truncateDataFields(data map[string]interface{}) {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if key == "data" && len(v) > 100 {
				data[key] = v[:100] + "... [truncated]"
			}
		case map[string]interface{}:
			truncateDataFields(v)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					truncateDataFields(m)
				}
			}
		}
	}
}

package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dqpipe/internal/datasource/httpds"
	"dqpipe/internal/table"
)

// DefaultEndpoint is the Gemini REST models root.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// ErrNoCandidates is returned when the model answers without any text.
var ErrNoCandidates = errors.New("advisor: empty model response")

// GeminiConfig configures a Gemini advisor.
type GeminiConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Gemini calls the generateContent endpoint of a Gemini model.
type Gemini struct {
	cfg    GeminiConfig
	client *httpds.Client
}

// NewGemini builds a Gemini advisor. Empty fields take defaults.
func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Gemini{
		cfg:    cfg,
		client: httpds.NewClient(httpds.Config{Timeout: cfg.Timeout, MaxRetries: 1}),
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Suggest sends the prompt plus the JSON sample and returns the first
// candidate's text.
func (g *Gemini) Suggest(ctx context.Context, sample *table.Table) (string, error) {
	payload, err := SampleJSON(sample)
	if err != nil {
		return "", fmt.Errorf("advisor: encode sample: %w", err)
	}
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: Prompt + string(payload)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("advisor: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model)
	headers := http.Header{"Content-Type": {"application/json"}}
	if g.cfg.APIKey != "" {
		headers.Set("x-goog-api-key", g.cfg.APIKey)
	}
	resp, err := g.client.Post(ctx, url, body, headers)
	if err != nil {
		return "", fmt.Errorf("advisor: gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("advisor: read response: %w", err)
	}
	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode/100 != 2 {
			return "", &httpds.StatusError{Method: http.MethodPost, URL: url, Code: resp.StatusCode}
		}
		return "", fmt.Errorf("advisor: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("advisor: gemini error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode/100 != 2 {
		return "", &httpds.StatusError{Method: http.MethodPost, URL: url, Code: resp.StatusCode}
	}
	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoCandidates
	}
	return sb.String(), nil
}

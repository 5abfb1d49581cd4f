package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient produces key seeds via the Google Gemini API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	prompts    *PromptBuilder
	httpClient *http.Client
	// backoff is the delay unit between retries.
	backoff time.Duration
}

// NewGeminiClient creates a new Gemini seed client.
func NewGeminiClient(apiKey, model string, prompts *PromptBuilder) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		prompts: prompts,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		backoff: 2 * time.Second,
	}
}

// --- Gemini API request/response types ---

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *genConfig      `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type genConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	Error         *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Seeds asks the model for one seed per mnemonic.
func (gc *GeminiClient) Seeds(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	response, err := gc.Generate(ctx, gc.prompts.SystemPrompt(), gc.prompts.BuildBatchUserPrompt(texts, nil))
	if err != nil {
		return nil, err
	}
	return ParseBatchResponse(response, len(texts)), nil
}

// Generate sends one prompt pair to Gemini, retrying on transient failures.
func (gc *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: userPrompt}},
			},
		},
		GenerationConfig: &genConfig{
			MaxOutputTokens: 2048,
			Temperature:     0.2,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal seed request: %w", err)
	}

	var lastErr error
	maxRetries := 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * gc.backoff
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying seed request")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, retryable, err := gc.doRequest(ctx, bodyBytes)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !retryable {
			break
		}
	}

	return "", fmt.Errorf("gemini request failed: %w", lastErr)
}

func (gc *GeminiClient) doRequest(ctx context.Context, bodyBytes []byte) (string, bool, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", gc.baseURL, gc.model, gc.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("retryable error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", false, fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", false, fmt.Errorf("API error [%s]: %s", apiResp.Error.Status, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 {
		return "", false, fmt.Errorf("empty response: no candidates")
	}

	var result strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		result.WriteString(p.Text)
	}

	if apiResp.UsageMetadata != nil {
		log.Debug().
			Int("prompt_tokens", apiResp.UsageMetadata.PromptTokenCount).
			Int("output_tokens", apiResp.UsageMetadata.CandidatesTokenCount).
			Msg("Seed request complete")
	}

	return strings.TrimSpace(result.String()), false, nil
}

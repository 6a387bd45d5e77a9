package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appcontent "github.com/intellipost/backend/internal/application/content"
	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/infrastructure/config"
)

// maxResponseSize caps the bytes read from the generation API
const maxResponseSize = 4 << 20

// GeminiClient calls the Gemini generateContent API to produce listing
// content from product photos and a seller prompt
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewGeminiClient creates a GeminiClient
func NewGeminiClient(cfg config.GeminiConfig, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		// the free tier allows roughly one request per second
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		logger:  logger,
	}
}

var _ appcontent.Generator = (*GeminiClient)(nil)

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// listingPayload is the JSON schema the model is instructed to emit
type listingPayload struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Attributes  []content.Attribute `json:"attributes"`
	Confidence  string              `json:"confidence"`
}

// Generate produces structured listing content from the request
func (c *GeminiClient) Generate(ctx context.Context, req appcontent.GenerationRequest) (*appcontent.GenerationResult, error) {
	parts := []geminiPart{{Text: buildInstruction(req)}}
	for _, img := range req.Images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: img.MimeType,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
		},
	}

	var resp geminiResponse
	if err := c.doRequest(ctx, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var payload listingPayload
	raw := resp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse generation output: %w", err)
	}

	return &appcontent.GenerationResult{
		Title:        payload.Title,
		Description:  payload.Description,
		CategoryName: payload.Category,
		Attributes:   payload.Attributes,
		Confidence:   payload.Confidence,
		Model:        c.model,
		PromptTokens: resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (c *GeminiClient) doRequest(ctx context.Context, body geminiRequest, out *geminiResponse) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("call gemini: %w", err)
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("gemini status %d", resp.StatusCode)
			c.logger.Warn("gemini retryable error",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(data, 300))
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if out.Error != nil {
			return fmt.Errorf("gemini error %d: %s", out.Error.Code, out.Error.Message)
		}
		return nil
	}
	return lastErr
}

func buildInstruction(req appcontent.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("You are an expert e-commerce copywriter for MercadoLibre")
	if req.Site != "" {
		b.WriteString(" (site " + req.Site + ")")
	}
	b.WriteString(". Analyze the attached product photos and generate a listing.\n")
	b.WriteString("Respond with a single JSON object with keys: ")
	b.WriteString(`"title" (max 60 characters, no ALL CAPS), "description" (plain text, a few paragraphs), `)
	b.WriteString(`"category" (the most specific category name), `)
	b.WriteString(`"attributes" (array of {"id","name","value"}), `)
	b.WriteString(`"confidence" ("low", "medium" or "high").` + "\n")
	if req.DefaultPrompt != "" {
		b.WriteString("Seller preferences: " + req.DefaultPrompt + "\n")
	}
	b.WriteString("Seller notes: " + req.Prompt)
	return b.String()
}

// sleepBackoff waits 1s, 2s, 4s... between retries, honoring cancellation
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := time.Second << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}

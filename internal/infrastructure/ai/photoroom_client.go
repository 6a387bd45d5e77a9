package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	appcontent "github.com/intellipost/backend/internal/application/content"
	"github.com/intellipost/backend/internal/infrastructure/config"
)

// maxImageResponseSize caps the bytes read from the segmentation API.
// Processed PNGs with transparency can be larger than the upload.
const maxImageResponseSize = 20 << 20

// PhotoRoomClient calls the PhotoRoom segmentation API to remove image
// backgrounds, producing a white background product shot
type PhotoRoomClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	maxRetries int
	logger     *zap.Logger
}

// NewPhotoRoomClient creates a PhotoRoomClient
func NewPhotoRoomClient(cfg config.PhotoRoomConfig, logger *zap.Logger) *PhotoRoomClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoRoomClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

var _ appcontent.BackgroundRemover = (*PhotoRoomClient)(nil)

// RemoveBackground sends the image for segmentation and returns the
// processed PNG
func (c *PhotoRoomClient) RemoveBackground(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, retryable, err := c.segment(ctx, image, mimeType)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("photoroom retryable error",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

func (c *PhotoRoomClient) segment(ctx context.Context, image []byte, mimeType string) ([]byte, bool, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image_file", filenameFor(mimeType))
	if err != nil {
		return nil, false, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, false, fmt.Errorf("write form: %w", err)
	}
	if err := writer.WriteField("bg_color", "FFFFFF"); err != nil {
		return nil, false, fmt.Errorf("write form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, false, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/segment", &body)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("call photoroom: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageResponseSize))
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return data, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("photoroom status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("photoroom status %d: %s", resp.StatusCode, truncate(data, 300))
	}
}

func filenameFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "image.png"
	case "image/webp":
		return "image.webp"
	default:
		return "image.jpg"
	}
}

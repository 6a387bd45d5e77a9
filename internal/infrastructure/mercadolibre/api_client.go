package mercadolibre

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appmarketplace "github.com/intellipost/backend/internal/application/marketplace"
	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/infrastructure/config"
)

// maxResponseSize caps the bytes read from the marketplace API
const maxResponseSize = 2 << 20

// APIClient calls the MercadoLibre REST API
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	logger     *zap.Logger
}

// NewAPIClient creates an APIClient
func NewAPIClient(cfg config.MercadoLibreConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

var _ appmarketplace.APIClient = (*APIClient)(nil)

type mlUserResponse struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	SiteID   string `json:"site_id"`
}

// GetMe fetches the authenticated seller's profile
func (c *APIClient) GetMe(ctx context.Context, accessToken string) (*appmarketplace.MLUser, error) {
	var resp mlUserResponse
	if err := c.doRequest(ctx, http.MethodGet, "/users/me", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &appmarketplace.MLUser{
		ID:       resp.ID,
		Nickname: resp.Nickname,
		SiteID:   resp.SiteID,
	}, nil
}

type categoryPrediction struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// PredictCategory asks the domain discovery API for the best category
// for a listing title
func (c *APIClient) PredictCategory(ctx context.Context, accessToken string, site marketplace.Site, title string) (*appmarketplace.CategoryPrediction, error) {
	path := fmt.Sprintf("/sites/%s/domain_discovery/search?limit=1&q=%s",
		site, url.QueryEscape(title))

	var resp []categoryPrediction
	if err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("no category prediction for title")
	}
	return &appmarketplace.CategoryPrediction{
		ID:   resp[0].CategoryID,
		Name: resp[0].CategoryName,
	}, nil
}

type itemAttribute struct {
	ID        string `json:"id"`
	ValueName string `json:"value_name"`
}

type itemPicture struct {
	Source string `json:"source"`
}

type createItemRequest struct {
	Title             string          `json:"title"`
	CategoryID        string          `json:"category_id"`
	Price             float64         `json:"price"`
	CurrencyID        string          `json:"currency_id"`
	AvailableQuantity int             `json:"available_quantity"`
	BuyingMode        string          `json:"buying_mode"`
	ListingTypeID     string          `json:"listing_type_id"`
	Condition         string          `json:"condition"`
	Pictures          []itemPicture   `json:"pictures"`
	Attributes        []itemAttribute `json:"attributes,omitempty"`
}

type createItemResponse struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

// PublishItem creates the listing and attaches its description
func (c *APIClient) PublishItem(ctx context.Context, accessToken string, req appmarketplace.ListingRequest) (*appmarketplace.ListingResult, error) {
	pictures := make([]itemPicture, len(req.Pictures))
	for i, p := range req.Pictures {
		pictures[i] = itemPicture{Source: p.Source}
	}
	attrs := make([]itemAttribute, 0, len(req.Attributes))
	for _, a := range req.Attributes {
		if a.ID == "" {
			continue
		}
		attrs = append(attrs, itemAttribute{ID: a.ID, ValueName: a.Value})
	}

	body := createItemRequest{
		Title:             req.Title,
		CategoryID:        req.CategoryID,
		Price:             float64(req.PriceCents) / 100,
		CurrencyID:        req.Currency,
		AvailableQuantity: 1,
		BuyingMode:        "buy_it_now",
		ListingTypeID:     "gold_special",
		Condition:         "not_specified",
		Pictures:          pictures,
		Attributes:        attrs,
	}

	var resp createItemResponse
	if err := c.doRequest(ctx, http.MethodPost, "/items", accessToken, body, &resp); err != nil {
		return nil, err
	}

	// the description lives in a separate resource
	descBody := map[string]string{"plain_text": req.Description}
	var descResp json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/items/"+resp.ID+"/description", accessToken, descBody, &descResp); err != nil {
		c.logger.Warn("attach description failed",
			zap.String("item_id", resp.ID),
			zap.Error(err),
		)
	}

	return &appmarketplace.ListingResult{
		ItemID:    resp.ID,
		Permalink: resp.Permalink,
	}, nil
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

func (c *APIClient) doRequest(ctx context.Context, method, path, accessToken string, body, out interface{}) error {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}

		var reader io.Reader
		if raw != nil {
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		if raw != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("call mercadolibre: %w", err)
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("mercadolibre %s %s: status %d", method, path, resp.StatusCode)
			c.logger.Warn("mercadolibre retryable error",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr apiError
			if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
				return fmt.Errorf("mercadolibre %s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("mercadolibre %s %s: status %d", method, path, resp.StatusCode)
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
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

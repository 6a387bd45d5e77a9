package content

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

// MaxTitleLength is the marketplace title limit
const MaxTitleLength = 60

// Confidence buckets reported by the generator
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Attribute is a structured product characteristic suggested by the
// generator, keyed by the marketplace attribute ID
type Attribute struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GeneratedContent is one generation attempt for a product. Each
// regeneration produces a new version; the latest approved version is
// what gets published.
type GeneratedContent struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	Generation    int
	Title         string
	Description   string
	CategoryID    string
	CategoryName  string
	Attributes    []Attribute
	Confidence    string
	Model         string
	PromptTokens  int
	OutputTokens  int
	EditedByUser  bool
	ApprovedAt    *time.Time
}

// New creates a content version from the generator output
func New(productID uuid.UUID, generation int, title, description string) (*GeneratedContent, error) {
	title = sanitizeTitle(title)
	if title == "" {
		return nil, shared.NewDomainError("EMPTY_TITLE", "Generated title is empty")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("EMPTY_DESCRIPTION", "Generated description is empty")
	}
	return &GeneratedContent{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		Generation:  generation,
		Title:       title,
		Description: description,
		Confidence:  ConfidenceMedium,
	}, nil
}

// SetCategory records the suggested marketplace category
func (c *GeneratedContent) SetCategory(id, name string) {
	c.CategoryID = id
	c.CategoryName = name
	c.UpdatedAt = time.Now()
}

// SetAttributes replaces the suggested attributes
func (c *GeneratedContent) SetAttributes(attrs []Attribute) {
	c.Attributes = attrs
	c.UpdatedAt = time.Now()
}

// SetUsage records model and token accounting from the generator
func (c *GeneratedContent) SetUsage(model string, promptTokens, outputTokens int) {
	c.Model = model
	c.PromptTokens = promptTokens
	c.OutputTokens = outputTokens
	c.UpdatedAt = time.Now()
}

// SetConfidence records the generator's self-reported confidence
func (c *GeneratedContent) SetConfidence(confidence string) {
	switch confidence {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		c.Confidence = confidence
	}
	c.UpdatedAt = time.Now()
}

// Edit applies seller changes to title and description
func (c *GeneratedContent) Edit(title, description string) error {
	title = sanitizeTitle(title)
	if title == "" {
		return shared.NewDomainError("EMPTY_TITLE", "Title cannot be empty")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewDomainError("EMPTY_DESCRIPTION", "Description cannot be empty")
	}
	c.Title = title
	c.Description = description
	c.EditedByUser = true
	c.UpdatedAt = time.Now()
	return nil
}

// Approve marks this version as accepted for publishing
func (c *GeneratedContent) Approve() {
	now := time.Now()
	c.ApprovedAt = &now
	c.UpdatedAt = now
}

// IsApproved reports whether this version has been accepted
func (c *GeneratedContent) IsApproved() bool {
	return c.ApprovedAt != nil
}

// sanitizeTitle trims whitespace and truncates to the marketplace
// limit at a word boundary when possible. The limit counts characters,
// not bytes, so accented titles are never cut mid-rune.
func sanitizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	cut := []rune(title)[:MaxTitleLength]
	for i := len(cut) - 1; i > MaxTitleLength/2; i-- {
		if cut[i] == ' ' {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimSpace(string(cut))
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/domain/shared"
)

// GeneratedContentModel is the generated_contents table
type GeneratedContentModel struct {
	BaseModel
	ProductID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_content_product_gen,unique,priority:1"`
	Generation   int            `gorm:"not null;index:idx_content_product_gen,unique,priority:2"`
	Title        string         `gorm:"size:60;not null"`
	Description  string         `gorm:"type:text;not null"`
	CategoryID   string         `gorm:"size:20"`
	CategoryName string         `gorm:"size:120"`
	Attributes   datatypes.JSON `gorm:"type:jsonb"`
	Confidence   string         `gorm:"size:10;not null"`
	Model        string         `gorm:"size:60"`
	PromptTokens int
	OutputTokens int
	EditedByUser bool `gorm:"not null;default:false"`
	ApprovedAt   *time.Time
}

// TableName sets the table name
func (GeneratedContentModel) TableName() string {
	return "generated_contents"
}

// ToDomain converts the persistence model to the domain entity
func (m *GeneratedContentModel) ToDomain() (*content.GeneratedContent, error) {
	var attrs []content.Attribute
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &attrs); err != nil {
			return nil, err
		}
	}
	return &content.GeneratedContent{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ProductID:    m.ProductID,
		Generation:   m.Generation,
		Title:        m.Title,
		Description:  m.Description,
		CategoryID:   m.CategoryID,
		CategoryName: m.CategoryName,
		Attributes:   attrs,
		Confidence:   m.Confidence,
		Model:        m.Model,
		PromptTokens: m.PromptTokens,
		OutputTokens: m.OutputTokens,
		EditedByUser: m.EditedByUser,
		ApprovedAt:   m.ApprovedAt,
	}, nil
}

// GeneratedContentModelFromDomain converts the domain entity to the persistence model
func GeneratedContentModelFromDomain(c *content.GeneratedContent) (*GeneratedContentModel, error) {
	var attrs datatypes.JSON
	if len(c.Attributes) > 0 {
		raw, err := json.Marshal(c.Attributes)
		if err != nil {
			return nil, err
		}
		attrs = raw
	}
	return &GeneratedContentModel{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		ProductID:    c.ProductID,
		Generation:   c.Generation,
		Title:        c.Title,
		Description:  c.Description,
		CategoryID:   c.CategoryID,
		CategoryName: c.CategoryName,
		Attributes:   attrs,
		Confidence:   c.Confidence,
		Model:        c.Model,
		PromptTokens: c.PromptTokens,
		OutputTokens: c.OutputTokens,
		EditedByUser: c.EditedByUser,
		ApprovedAt:   c.ApprovedAt,
	}, nil
}

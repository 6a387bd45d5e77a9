package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
)

// ProductModel is the products table
type ProductModel struct {
	VersionedModel
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Prompt       string    `gorm:"type:text;not null"`
	PriceCents   int64     `gorm:"not null"`
	Currency     string    `gorm:"size:3;not null"`
	Status       string    `gorm:"size:20;not null;index"`
	FailureCause string    `gorm:"type:text"`
	ListingID    string    `gorm:"size:40"`
	PublishedAt  *time.Time
	Images       []ProductImageModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name
func (ProductModel) TableName() string {
	return "products"
}

// ProductImageModel is the product_images table
type ProductImageModel struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename     string    `gorm:"size:255;not null"`
	ContentType  string    `gorm:"size:40;not null"`
	SizeBytes    int64     `gorm:"not null"`
	Width        int
	Height       int
	OriginalKey  string `gorm:"size:512;not null"`
	ProcessedKey string `gorm:"size:512"`
	ThumbnailKey string `gorm:"size:512"`
	IsPrimary    bool   `gorm:"not null;default:false"`
	Position     int    `gorm:"not null;default:0"`
}

// TableName sets the table name
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *ProductModel) ToDomain() *product.Product {
	images := make([]product.Image, len(m.Images))
	for i, img := range m.Images {
		images[i] = img.ToDomain()
	}
	return &product.Product{
		OwnedAggregateRoot: shared.OwnedAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			UserID: m.UserID,
		},
		Prompt:       m.Prompt,
		PriceCents:   m.PriceCents,
		Currency:     m.Currency,
		Status:       product.Status(m.Status),
		FailureCause: m.FailureCause,
		Images:       images,
		ListingID:    m.ListingID,
		PublishedAt:  m.PublishedAt,
	}
}

// ToDomain converts the image model to the domain entity
func (m *ProductImageModel) ToDomain() product.Image {
	return product.Image{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Filename:     m.Filename,
		ContentType:  m.ContentType,
		SizeBytes:    m.SizeBytes,
		Width:        m.Width,
		Height:       m.Height,
		OriginalKey:  m.OriginalKey,
		ProcessedKey: m.ProcessedKey,
		ThumbnailKey: m.ThumbnailKey,
		IsPrimary:    m.IsPrimary,
		Position:     m.Position,
	}
}

// ProductModelFromDomain converts the domain aggregate to the persistence model
func ProductModelFromDomain(p *product.Product) *ProductModel {
	images := make([]ProductImageModel, len(p.Images))
	for i, img := range p.Images {
		images[i] = ProductImageModel{
			BaseModel: BaseModel{
				ID:        img.ID,
				CreatedAt: img.CreatedAt,
				UpdatedAt: img.UpdatedAt,
			},
			ProductID:    p.ID,
			Filename:     img.Filename,
			ContentType:  img.ContentType,
			SizeBytes:    img.SizeBytes,
			Width:        img.Width,
			Height:       img.Height,
			OriginalKey:  img.OriginalKey,
			ProcessedKey: img.ProcessedKey,
			ThumbnailKey: img.ThumbnailKey,
			IsPrimary:    img.IsPrimary,
			Position:     img.Position,
		}
	}
	return &ProductModel{
		VersionedModel: VersionedModel{
			BaseModel: BaseModel{
				ID:        p.ID,
				CreatedAt: p.CreatedAt,
				UpdatedAt: p.UpdatedAt,
			},
			Version: p.Version,
		},
		UserID:       p.UserID,
		Prompt:       p.Prompt,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
		Status:       string(p.Status),
		FailureCause: p.FailureCause,
		ListingID:    p.ListingID,
		PublishedAt:  p.PublishedAt,
		Images:       images,
	}
}

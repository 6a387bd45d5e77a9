package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appmarketplace "github.com/intellipost/backend/internal/application/marketplace"
	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/domain/user"
)

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) Save(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockProductRepo) Update(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}
func (m *mockProductRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter product.ListFilter) ([]*product.Product, int64, error) {
	args := m.Called(ctx, userID, filter)
	return nil, 0, args.Error(2)
}
func (m *mockProductRepo) CountByStatus(ctx context.Context, userID uuid.UUID) (map[product.Status]int64, error) {
	args := m.Called(ctx, userID)
	return nil, args.Error(1)
}

type mockContentRepo struct{ mock.Mock }

func (m *mockContentRepo) Save(ctx context.Context, c *content.GeneratedContent) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockContentRepo) Update(ctx context.Context, c *content.GeneratedContent) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockContentRepo) FindByID(ctx context.Context, id uuid.UUID) (*content.GeneratedContent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.GeneratedContent), args.Error(1)
}
func (m *mockContentRepo) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*content.GeneratedContent, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.GeneratedContent), args.Error(1)
}
func (m *mockContentRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*content.GeneratedContent, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*content.GeneratedContent), args.Error(1)
}
func (m *mockContentRepo) NextGeneration(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Save(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserRepo) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	return nil, args.Error(1)
}
func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockCredentialsRepo struct{ mock.Mock }

func (m *mockCredentialsRepo) Save(ctx context.Context, c *marketplace.Credentials) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCredentialsRepo) Update(ctx context.Context, c *marketplace.Credentials) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCredentialsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockCredentialsRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*marketplace.Credentials, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Credentials), args.Error(1)
}
func (m *mockCredentialsRepo) ListExpiring(ctx context.Context, limit int) ([]*marketplace.Credentials, error) {
	args := m.Called(ctx, limit)
	return nil, args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) PresignUpload(ctx context.Context, key, contentType string, maxBytes int64) (string, error) {
	args := m.Called(ctx, key, contentType, maxBytes)
	return args.String(0), args.Error(1)
}
func (m *mockStorage) PresignDownload(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
func (m *mockStorage) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *mockStorage) Put(ctx context.Context, key, contentType string, body []byte) error {
	return m.Called(ctx, key, contentType, body).Error(0)
}
func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
func (m *mockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GenerationResult), args.Error(1)
}

type mockRemover struct{ mock.Mock }

func (m *mockRemover) RemoveBackground(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	args := m.Called(ctx, image, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockProcessor struct{ mock.Mock }

func (m *mockProcessor) Normalize(data []byte) ([]byte, int, int, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, 0, 0, args.Error(3)
	}
	return args.Get(0).([]byte), args.Int(1), args.Int(2), args.Error(3)
}
func (m *mockProcessor) Thumbnail(data []byte) ([]byte, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockMLAPI struct{ mock.Mock }

func (m *mockMLAPI) GetMe(ctx context.Context, accessToken string) (*appmarketplace.MLUser, error) {
	args := m.Called(ctx, accessToken)
	return nil, args.Error(1)
}
func (m *mockMLAPI) PredictCategory(ctx context.Context, accessToken string, site marketplace.Site, title string) (*appmarketplace.CategoryPrediction, error) {
	args := m.Called(ctx, accessToken, site, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmarketplace.CategoryPrediction), args.Error(1)
}
func (m *mockMLAPI) PublishItem(ctx context.Context, accessToken string, req appmarketplace.ListingRequest) (*appmarketplace.ListingResult, error) {
	args := m.Called(ctx, accessToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmarketplace.ListingResult), args.Error(1)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

type pipelineFixture struct {
	products    *mockProductRepo
	contents    *mockContentRepo
	users       *mockUserRepo
	credentials *mockCredentialsRepo
	storage     *mockStorage
	generator   *mockGenerator
	remover     *mockRemover
	processor   *mockProcessor
	mlAPI       *mockMLAPI
	service     *GenerationService
}

func newFixture() *pipelineFixture {
	f := &pipelineFixture{
		products:    new(mockProductRepo),
		contents:    new(mockContentRepo),
		users:       new(mockUserRepo),
		credentials: new(mockCredentialsRepo),
		storage:     new(mockStorage),
		generator:   new(mockGenerator),
		remover:     new(mockRemover),
		processor:   new(mockProcessor),
		mlAPI:       new(mockMLAPI),
	}
	f.service = NewGenerationService(
		f.products, f.contents, f.users, f.credentials,
		f.storage, f.generator, f.remover, f.processor,
		f.mlAPI, noopPublisher{}, nil,
	)
	return f
}

func processingProduct(t *testing.T) *product.Product {
	t.Helper()
	p, err := product.New(uuid.New(), "campera de cuero vintage", 250000, "ARS")
	require.NoError(t, err)
	require.NoError(t, p.AddImage(product.NewImage("a.jpg", "image/jpeg", 100, "orig-key")))
	require.NoError(t, p.StartProcessing())
	p.ClearDomainEvents()
	return p
}

func fixtureOwner(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("seller@example.com", "secret123", "Ana", "B")
	require.NoError(t, err)
	u.DefaultPrompt = "mention free shipping"
	return u
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture()
	p := processingProduct(t)
	owner := fixtureOwner(t)

	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.users.On("FindByID", mock.Anything, p.UserID).Return(owner, nil)
	f.credentials.On("FindByUser", mock.Anything, p.UserID).Return(nil, shared.ErrNotFound)

	f.storage.On("Get", mock.Anything, "orig-key").Return([]byte("raw"), nil)
	f.processor.On("Normalize", []byte("raw")).Return([]byte("normalized"), 800, 600, nil)
	f.remover.On("RemoveBackground", mock.Anything, []byte("normalized"), "image/jpeg").
		Return([]byte("clean"), nil)
	f.storage.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > 0
	}), mock.Anything, mock.Anything).Return(nil)
	f.processor.On("Thumbnail", []byte("normalized")).Return([]byte("thumb"), nil)

	f.generator.On("Generate", mock.Anything, mock.MatchedBy(func(req GenerationRequest) bool {
		return req.Prompt == "campera de cuero vintage" &&
			req.DefaultPrompt == "mention free shipping" &&
			len(req.Images) == 1
	})).Return(&GenerationResult{
		Title:       "Campera de Cuero Vintage",
		Description: "Excelente estado.",
		Confidence:  "high",
		Model:       "gemini-2.0-flash",
	}, nil)

	f.contents.On("NextGeneration", mock.Anything, p.ID).Return(1, nil)
	f.contents.On("Save", mock.Anything, mock.MatchedBy(func(c *content.GeneratedContent) bool {
		return c.Title == "Campera de Cuero Vintage" && c.Generation == 1
	})).Return(nil)
	f.products.On("Update", mock.Anything, p).Return(nil)

	require.NoError(t, f.service.Run(context.Background(), p.ID))
	assert.Equal(t, product.StatusReady, p.Status)
	assert.NotEmpty(t, p.Images[0].ProcessedKey)
	assert.NotEmpty(t, p.Images[0].ThumbnailKey)
	f.contents.AssertExpectations(t)
}

func TestRunMarksFailedOnGeneratorError(t *testing.T) {
	f := newFixture()
	p := processingProduct(t)
	owner := fixtureOwner(t)

	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.users.On("FindByID", mock.Anything, p.UserID).Return(owner, nil)
	f.credentials.On("FindByUser", mock.Anything, p.UserID).Return(nil, shared.ErrNotFound)
	f.storage.On("Get", mock.Anything, "orig-key").Return([]byte("raw"), nil)
	f.processor.On("Normalize", []byte("raw")).Return([]byte("normalized"), 800, 600, nil)
	f.remover.On("RemoveBackground", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte("clean"), nil)
	f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.processor.On("Thumbnail", mock.Anything).Return([]byte("thumb"), nil)
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Return(nil, errors.New("model overloaded"))
	f.products.On("Update", mock.Anything, p).Return(nil)

	require.NoError(t, f.service.Run(context.Background(), p.ID))
	assert.Equal(t, product.StatusFailed, p.Status)
	assert.Contains(t, p.FailureCause, "model overloaded")
}

func TestRunSkipsNonProcessingProduct(t *testing.T) {
	f := newFixture()
	p, err := product.New(uuid.New(), "campera", 100, "ARS")
	require.NoError(t, err)

	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	require.NoError(t, f.service.Run(context.Background(), p.ID))
	assert.Equal(t, product.StatusUploading, p.Status)
	f.generator.AssertNotCalled(t, "Generate")
}

func TestRunPredictsCategoryWhenConnected(t *testing.T) {
	f := newFixture()
	p := processingProduct(t)
	owner := fixtureOwner(t)

	creds, err := marketplace.NewCredentials(p.UserID, marketplace.SiteArgentina, 1, "SELLER")
	require.NoError(t, err)
	require.NoError(t, creds.SetTokens("ml-token", "refresh", "Bearer", "", 6*time.Hour))

	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.users.On("FindByID", mock.Anything, p.UserID).Return(owner, nil)
	f.credentials.On("FindByUser", mock.Anything, p.UserID).Return(creds, nil)
	f.storage.On("Get", mock.Anything, "orig-key").Return([]byte("raw"), nil)
	f.processor.On("Normalize", mock.Anything).Return([]byte("n"), 800, 600, nil)
	f.remover.On("RemoveBackground", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte("c"), nil)
	f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.processor.On("Thumbnail", mock.Anything).Return([]byte("t"), nil)
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GenerationResult{
		Title:       "Titulo",
		Description: "Desc",
		Confidence:  "medium",
	}, nil)
	f.mlAPI.On("PredictCategory", mock.Anything, "ml-token", marketplace.SiteArgentina, "Titulo").
		Return(&appmarketplace.CategoryPrediction{ID: "MLA1234", Name: "Camperas"}, nil)
	f.contents.On("NextGeneration", mock.Anything, p.ID).Return(2, nil)
	f.contents.On("Save", mock.Anything, mock.MatchedBy(func(c *content.GeneratedContent) bool {
		return c.CategoryID == "MLA1234" && c.Generation == 2
	})).Return(nil)
	f.products.On("Update", mock.Anything, p).Return(nil)

	require.NoError(t, f.service.Run(context.Background(), p.ID))
	f.mlAPI.AssertExpectations(t)
}

func TestEditAndApprove(t *testing.T) {
	f := newFixture()
	p := processingProduct(t)

	c, err := content.New(p.ID, 1, "Titulo", "Desc")
	require.NoError(t, err)

	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.contents.On("FindLatestByProduct", mock.Anything, p.ID).Return(c, nil)
	f.contents.On("Update", mock.Anything, c).Return(nil)

	edited, err := f.service.Edit(context.Background(), p.UserID, p.ID, "Mejor Titulo", "Mejor Desc")
	require.NoError(t, err)
	assert.True(t, edited.EditedByUser)

	approved, err := f.service.Approve(context.Background(), p.UserID, p.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved())
}

func TestEditForeignProductRejected(t *testing.T) {
	f := newFixture()
	p := processingProduct(t)

	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	_, err := f.service.Edit(context.Background(), uuid.New(), p.ID, "T", "D")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

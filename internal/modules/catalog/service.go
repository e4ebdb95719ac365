package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopportable/shop-portable-backend/internal/platform/validate"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
	"github.com/tealeg/xlsx"
)

// MaxImages is how many pictures a product may carry.
const MaxImages = 5

// Service defines catalog business logic.
type Service interface {
	Create(ctx context.Context, creatorID uuid.UUID, req CreateRequest) (*Product, error)
	// Get and List attach image metadata to each product.
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExportXLSX(ctx context.Context, w io.Writer) error

	AddImage(ctx context.Context, productID uuid.UUID, contentType string, data []byte) (*Image, error)
	ListImages(ctx context.Context, productID uuid.UUID) ([]Image, error)
	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
	DeleteImages(ctx context.Context, productID uuid.UUID) error
}

var (
	errNoProduct     = apperr.NotFound("Product with that id not found")
	errNoImage       = apperr.NotFound("No image found with this id")
	errNoImages      = apperr.NotFound("No images found for that product")
	errDuplicateName = apperr.Business("A product with that name already exists")
	errStockTooLow   = apperr.Business("Stock cannot be less than the number of units already sold")
	errInUse         = apperr.Business("Product is part of existing orders and cannot be deleted")
	errNotPNG        = apperr.Validation("We only accept image in png format")
	errTooMany       = apperr.Business("A product can have at most %d images", MaxImages)
)

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service { return &service{repo: repo, now: time.Now} }

func (s *service) Create(ctx context.Context, creatorID uuid.UUID, req CreateRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	condition := req.Condition
	if condition == "" {
		condition = ConditionNew
	}
	now := s.now().UTC()
	launch := now.Truncate(24 * time.Hour)
	if req.LaunchDate != "" {
		launch, _ = validate.Date(req.LaunchDate)
	}
	p := &Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   condition,
		Stock:       *req.Stock,
		Discount:    req.Discount,
		Brand:       req.Brand,
		CreatorID:   &creatorID,
		LaunchDate:  launch,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = images
	return p, nil
}

func (s *service) List(ctx context.Context) ([]*Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}
	images, err := s.repo.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID][]Image)
	for _, img := range images {
		byProduct[img.ProductID] = append(byProduct[img.ProductID], img)
	}
	for _, p := range products {
		p.Images = byProduct[p.ID]
	}
	return products, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	req.apply(p)
	if p.Stock < p.Sold {
		return nil, errStockTooLow
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

// Delete removes the product and, with it, its images.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func (s *service) ExportXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range []string{
		"ID", "Name", "Brand", "Category", "Condition", "Price", "Discount",
		"Stock", "Sold", "Available", "LaunchDate", "CreatedAt",
	} {
		header.AddCell().SetString(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetString(string(p.Category))
		row.AddCell().SetString(string(p.Condition))
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(p.Discount.String())
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetInt(p.Sold)
		row.AddCell().SetInt(p.Available())
		row.AddCell().SetString(p.LaunchDate.Format(validate.DateLayout))
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ── images ───────────────────────────────────────────────────────────────────

func (s *service) AddImage(ctx context.Context, productID uuid.UUID, contentType string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, web.ErrNoUpload
	}
	if !validate.PNG(contentType, data) {
		return nil, errNotPNG
	}
	img := &Image{
		ID:          uuid.New(),
		ProductID:   productID,
		ContentType: "image/png",
		Size:        len(data),
		CreatedAt:   s.now().UTC(),
		Data:        data,
	}
	if err := s.repo.AddImage(ctx, img, MaxImages); err != nil {
		return nil, mapRepoErr(err)
	}
	return img, nil
}

func (s *service) ListImages(ctx context.Context, productID uuid.UUID) ([]Image, error) {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return nil, mapRepoErr(err)
	}
	images, err := s.repo.ListImages(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errNoImages
	}
	return images, nil
}

func (s *service) GetImage(ctx context.Context, id uuid.UUID) (*Image, error) {
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return img, nil
}

func (s *service) DeleteImage(ctx context.Context, id uuid.UUID) error {
	return mapRepoErr(s.repo.DeleteImage(ctx, id))
}

func (s *service) DeleteImages(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return mapRepoErr(err)
	}
	n, err := s.repo.DeleteImages(ctx, productID)
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoImages
	}
	return nil
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return errNoProduct
	case errors.Is(err, ErrImageNotFound):
		return errNoImage
	case errors.Is(err, ErrDuplicateName):
		return errDuplicateName
	case errors.Is(err, ErrStockBelowSold):
		return errStockTooLow
	case errors.Is(err, ErrInUse):
		return errInUse
	case errors.Is(err, ErrTooManyImages):
		return errTooMany
	default:
		return err
	}
}

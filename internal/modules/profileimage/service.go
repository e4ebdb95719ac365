package profileimage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopportable/shop-portable-backend/internal/platform/validate"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// Service manages the profile picture of an account.
type Service interface {
	Get(ctx context.Context, owner Owner) (*Image, error)
	Upload(ctx context.Context, owner Owner, contentType string, data []byte) (*Image, error)
	Replace(ctx context.Context, owner Owner, contentType string, data []byte) (*Image, error)
	Delete(ctx context.Context, owner Owner) error
}

var (
	errNoImage = apperr.NotFound("No image found for current user")
	errExists  = apperr.Business("Profile image already exists")
	errNotPNG  = apperr.Validation("We only accept image in png format")
)

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Get(ctx context.Context, owner Owner) (*Image, error) {
	img, err := s.repo.Get(ctx, owner)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return img, nil
}

func (s *service) Upload(ctx context.Context, owner Owner, contentType string, data []byte) (*Image, error) {
	img, err := s.image(owner, contentType, data)
	if err != nil {
		return nil, err
	}
	img.ID = uuid.New()
	img.Alt = "profile_image_" + img.ID.String()
	img.CreatedAt = img.UpdatedAt
	if err := s.repo.Create(ctx, img); err != nil {
		return nil, mapRepoErr(err)
	}
	return img, nil
}

func (s *service) Replace(ctx context.Context, owner Owner, contentType string, data []byte) (*Image, error) {
	img, err := s.image(owner, contentType, data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, img); err != nil {
		return nil, mapRepoErr(err)
	}
	return img, nil
}

func (s *service) Delete(ctx context.Context, owner Owner) error {
	return mapRepoErr(s.repo.Delete(ctx, owner))
}

func (s *service) image(owner Owner, contentType string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, web.ErrNoUpload
	}
	if !validate.PNG(contentType, data) {
		return nil, errNotPNG
	}
	return &Image{
		Owner:       owner,
		ContentType: "image/png",
		Size:        len(data),
		Data:        data,
		UpdatedAt:   s.now().UTC(),
	}, nil
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return errNoImage
	case errors.Is(err, ErrExists):
		return errExists
	default:
		return err
	}
}

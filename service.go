package foodrecipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/eko2okna/food-recipe-app/internal/blobstore"
)

// ImageUpload is an image attached to a create or update request.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type DishInput struct {
	Title  string
	Recipe string
	Type   string
	Image  *ImageUpload
}

func (in DishInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return nil
}

type DishService interface {
	GetOne(ctx context.Context, dishID uint) (*Dish, error)
	CreateOne(ctx context.Context, authorID uint, input DishInput) (*Dish, error)
	UpdateOne(ctx context.Context, dish *Dish, userID uint, input DishInput) (*Dish, error)
	// DeleteOne removes the dish and its ratings.
	DeleteOne(ctx context.Context, dish *Dish, userID uint) error
}

type DishServiceParams struct {
	fx.In

	Blobs   *blobstore.Store
	Cleaner BlobCleaner
	DB      DBService
	Logger  LoggerService
	Repo    Repository[Dish]
}

type dishService struct {
	blobs   *blobstore.Store
	cleaner BlobCleaner
	db      DBService
	logger  LoggerService
	repo    Repository[Dish]
}

func NewDishService(params DishServiceParams) DishService {
	return &dishService{
		blobs:   params.Blobs,
		cleaner: params.Cleaner,
		db:      params.DB,
		logger:  params.Logger,
		repo:    params.Repo,
	}
}

func (s *dishService) GetOne(ctx context.Context, dishID uint) (*Dish, error) {
	dish, err := s.repo.FindOneByID(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}

	return dish, nil
}

func (s *dishService) CreateOne(ctx context.Context, authorID uint, input DishInput) (*Dish, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	imagePath, err := s.storeImage(input.Image)
	if err != nil {
		return nil, err
	}

	dish := &Dish{
		Title:    input.Title,
		Recipe:   input.Recipe,
		Type:     input.Type,
		AuthorID: authorID,
	}
	if imagePath != "" {
		dish.ImagePath = &imagePath
	}

	if err := s.repo.CreateOne(ctx, dish); err != nil {
		s.cleaner.Schedule(imagePath)
		return nil, fmt.Errorf("failed to create dish: %w", err)
	}

	return dish, nil
}

// UpdateOne keeps the current image unless a new one is supplied. The replaced
// image is removed only after the row update succeeds.
func (s *dishService) UpdateOne(ctx context.Context, dish *Dish, userID uint, input DishInput) (*Dish, error) {
	if err := AuthorizeOwner(dish, userID); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	imagePath, err := s.storeImage(input.Image)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":  input.Title,
		"recipe": input.Recipe,
		"type":   input.Type,
	}
	if imagePath != "" {
		updates["image_path"] = imagePath
	}

	if err := s.repo.UpdateOne(ctx, dish.ID, updates); err != nil {
		s.cleaner.Schedule(imagePath)
		return nil, fmt.Errorf("failed to update dish: %w", err)
	}

	if imagePath != "" && dish.ImagePath != nil {
		s.cleaner.Schedule(*dish.ImagePath)
	}

	updated := *dish
	updated.Title = input.Title
	updated.Recipe = input.Recipe
	updated.Type = input.Type
	if imagePath != "" {
		updated.ImagePath = &imagePath
	}

	return &updated, nil
}

func (s *dishService) DeleteOne(ctx context.Context, dish *Dish, userID uint) error {
	if err := AuthorizeOwner(dish, userID); err != nil {
		return err
	}

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("dish_id = ?", dish.ID).Delete(&Rating{}).Error; err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}

		result := tx.Delete(&Dish{}, dish.ID)
		if result.Error != nil {
			return fmt.Errorf("delete dish: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("dish %d: %w", dish.ID, ErrRecordNotFound)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete dish: %w", err)
	}

	if dish.ImagePath != nil {
		s.cleaner.Schedule(*dish.ImagePath)
	}

	return nil
}

func (s *dishService) storeImage(image *ImageUpload) (string, error) {
	if image == nil {
		return "", nil
	}

	path, err := s.blobs.Save(image.Filename, image.Content)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return path, nil
}

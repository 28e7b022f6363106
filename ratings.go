package foodrecipe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinRating = 1
	MaxRating = 10
)

type RatingService interface {
	// SubmitRating stores the user's rating for a dish, replacing any earlier one.
	SubmitRating(ctx context.Context, userID, dishID uint, rating int) error
	ListDishesWithRatings(ctx context.Context) ([]DishView, error)
}

type RatingServiceParams struct {
	fx.In

	DB     DBService
	Logger LoggerService
}

type ratingService struct {
	db     DBService
	logger LoggerService
}

func NewRatingService(params RatingServiceParams) RatingService {
	return &ratingService{
		db:     params.DB,
		logger: params.Logger,
	}
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be an integer from %d to %d", ErrValidation, MinRating, MaxRating)
	}
	return nil
}

// ParseRating accepts a JSON number or numeric string holding a whole number.
func ParseRating(raw json.Number) (int, error) {
	f, err := raw.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: rating must be an integer from %d to %d", ErrValidation, MinRating, MaxRating)
	}

	if f < MinRating || f > MaxRating {
		return 0, fmt.Errorf("%w: rating must be an integer from %d to %d", ErrValidation, MinRating, MaxRating)
	}

	return int(f), nil
}

func (s *ratingService) SubmitRating(ctx context.Context, userID, dishID uint, rating int) error {
	if dishID == 0 {
		return fmt.Errorf("%w: missing dish ID", ErrValidation)
	}

	if err := ValidateRating(rating); err != nil {
		return err
	}

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Dish{}).Where("id = ?", dishID).Count(&count).Error; err != nil {
			return fmt.Errorf("check dish: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("dish %d: %w", dishID, ErrRecordNotFound)
		}

		row := Rating{UserID: userID, DishID: dishID, Rating: rating}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "dish_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating"}),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to submit rating: %w", err)
	}

	s.logger.Debug("Rated dish", "user", userID, "dish", dishID, "rating", rating)

	return nil
}

type dishRow struct {
	ID             uint
	Title          string
	Recipe         string
	ImagePath      *string
	Type           string
	AuthorID       uint
	AuthorUsername *string
}

type ratingRow struct {
	DishID   uint
	Username string
	Rating   int
}

func (s *ratingService) ListDishesWithRatings(ctx context.Context) ([]DishView, error) {
	var (
		dishes  []dishRow
		ratings []ratingRow
	)

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		err := tx.Table("dishes AS d").
			Select("d.id, d.title, d.recipe, d.image_path, d.type, d.author_id, u.username AS author_username").
			Joins("LEFT JOIN users u ON u.id = d.author_id").
			Order("d.id DESC").
			Scan(&dishes).Error
		if err != nil {
			return fmt.Errorf("list dishes: %w", err)
		}

		if len(dishes) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(dishes))
		for _, d := range dishes {
			ids = append(ids, d.ID)
		}

		err = tx.Table("ratings AS r").
			Select("r.dish_id, u.username, r.rating").
			Joins("JOIN users u ON u.id = r.user_id").
			Where("r.dish_id IN ?", ids).
			Order("r.dish_id ASC, r.id ASC").
			Scan(&ratings).Error
		if err != nil {
			return fmt.Errorf("list ratings: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes with ratings: %w", err)
	}

	return aggregateRatings(dishes, ratings), nil
}

// aggregateRatings groups ratings under their dish, keeping the dish order.
func aggregateRatings(dishes []dishRow, ratings []ratingRow) []DishView {
	byDish := make(map[uint][]RatingView, len(dishes))
	for _, r := range ratings {
		byDish[r.DishID] = append(byDish[r.DishID], RatingView{Username: r.Username, Rating: r.Rating})
	}

	views := make([]DishView, 0, len(dishes))
	for _, d := range dishes {
		list := byDish[d.ID]
		if list == nil {
			list = []RatingView{}
		}

		views = append(views, DishView{
			ID:             d.ID,
			Title:          d.Title,
			Recipe:         d.Recipe,
			ImagePath:      d.ImagePath,
			Type:           d.Type,
			AuthorID:       d.AuthorID,
			AuthorUsername: d.AuthorUsername,
			Ratings:        list,
			AverageRating:  averageRating(list),
		})
	}

	return views
}

// averageRating is nil for an empty list.
func averageRating(list []RatingView) *float64 {
	if len(list) == 0 {
		return nil
	}

	sum := 0
	for _, r := range list {
		sum += r.Rating
	}

	avg := float64(sum) / float64(len(list))
	return &avg
}

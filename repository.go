package foodrecipe

import (
	"context"
	"fmt"

	"github.com/eko2okna/food-recipe-app/interfaces"
)

type Repository[M interfaces.Model] interface {
	FindOneByID(ctx context.Context, itemID uint) (*M, error)
	CreateOne(ctx context.Context, item *M) error
	UpdateOne(ctx context.Context, itemID uint, updates map[string]interface{}) error
}

type repository[M interfaces.Model] struct {
	db     DBService
	logger LoggerService

	tableName string
}

type RepositoryOption[M interfaces.Model] func(*repository[M])

func NewRepository[M interfaces.Model](
	db DBService,
	logger LoggerService,
	opts ...RepositoryOption[M],
) Repository[M] {
	repo := &repository[M]{
		db:     db,
		logger: logger,
	}

	for _, opt := range opts {
		opt(repo)
	}

	return repo
}

// NewDishRepository is the fx provider for the dishes table.
func NewDishRepository(db DBService, logger LoggerService) Repository[Dish] {
	return NewRepository[Dish](db, logger, WithTableName[Dish]("dishes"))
}

func (r *repository[M]) FindOneByID(ctx context.Context, itemID uint) (*M, error) {
	var item M

	err := r.db.FindOne(ctx, &item, fmt.Sprintf("%s.id = ?", r.tableName), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find one item: %w", err)
	}

	r.logger.Debug("Found one item", "item", item.GetID(), "table", r.tableName)

	return &item, nil
}

func (r *repository[M]) CreateOne(ctx context.Context, item *M) error {
	err := r.db.CreateOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create one item: %w", err)
	}

	r.logger.Debug("Created one item", "item", (*item).GetID(), "table", r.tableName)

	return nil
}

func (r *repository[M]) UpdateOne(ctx context.Context, itemID uint, updates map[string]interface{}) error {
	var model M

	err := r.db.UpdateOne(ctx, &model, itemID, updates)
	if err != nil {
		return fmt.Errorf("failed to update one item: %w", err)
	}

	r.logger.Debug("Updated one item", "item", itemID, "table", r.tableName)

	return nil
}

func WithTableName[M interfaces.Model](tableName string) RepositoryOption[M] {
	return func(r *repository[M]) {
		r.tableName = tableName
	}
}

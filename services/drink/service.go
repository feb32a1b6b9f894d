package drink

import (
	"context"
	"errors"
	"strings"

	"github.com/upb/coffee-shop/models"
	"github.com/upb/coffee-shop/repositories"
	"github.com/upb/coffee-shop/services"
	"go.uber.org/zap"
)

// UpdateRequest carries the fields of a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Title  *string
	Recipe models.Recipe
}

// DrinkService handles the drink menu business operations
type DrinkService struct {
	drinks repositories.DrinkRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewDrinkService creates a new DrinkService instance
func NewDrinkService(drinks repositories.DrinkRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *DrinkService {
	return &DrinkService{
		drinks: drinks,
		txMgr:  txMgr,
		logger: logger,
	}
}

// ListDrinks returns every drink on the menu
func (s *DrinkService) ListDrinks(ctx context.Context) ([]*models.Drink, error) {
	drinks, err := s.drinks.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list drinks", err)
	}
	return drinks, nil
}

// CreateDrink adds a drink to the menu
func (s *DrinkService) CreateDrink(ctx context.Context, title string, recipe models.Recipe) (*models.Drink, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.ErrEmptyTitle
	}
	if len(recipe) == 0 {
		return nil, services.ErrEmptyRecipe
	}

	drink := models.NewDrink(title, recipe)
	if err := s.drinks.Create(ctx, drink); err != nil {
		return nil, translateRepoError(err, "failed to create drink")
	}

	s.logger.Info("drink created",
		zap.Int("drink_id", drink.ID),
		zap.String("title", drink.Title))

	return drink, nil
}

// UpdateDrink applies a partial update inside a transaction.
// An update with no fields set returns the drink unchanged.
func (s *DrinkService) UpdateDrink(ctx context.Context, id int, req UpdateRequest) (*models.Drink, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, services.ErrEmptyTitle
	}
	if req.Recipe != nil && len(req.Recipe) == 0 {
		return nil, services.ErrEmptyRecipe
	}

	drink, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Drink, error) {
		drink, err := s.drinks.GetByID(ctx, id)
		if err != nil {
			return nil, translateRepoError(err, "failed to load drink")
		}

		if req.Title == nil && req.Recipe == nil {
			return drink, nil
		}
		if req.Title != nil {
			drink.Title = strings.TrimSpace(*req.Title)
		}
		if req.Recipe != nil {
			drink.Recipe = req.Recipe
		}

		if err := s.drinks.Update(ctx, drink); err != nil {
			return nil, translateRepoError(err, "failed to update drink")
		}
		return drink, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("drink updated", zap.Int("drink_id", drink.ID))
	return drink, nil
}

// DeleteDrink removes a drink from the menu
func (s *DrinkService) DeleteDrink(ctx context.Context, id int) error {
	if err := s.drinks.Delete(ctx, id); err != nil {
		return translateRepoError(err, "failed to delete drink")
	}

	s.logger.Info("drink deleted", zap.Int("drink_id", id))
	return nil
}

// SeedDefaults inserts the default menu when no drinks exist.
// Returns the number of drinks inserted.
func (s *DrinkService) SeedDefaults(ctx context.Context) (int, error) {
	seeded, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (int, error) {
		count, err := s.drinks.Count(ctx)
		if err != nil {
			return 0, services.WrapInternal("failed to count drinks", err)
		}
		if count > 0 {
			return 0, nil
		}

		defaults := models.DefaultDrinks()
		for _, drink := range defaults {
			if err := s.drinks.Create(ctx, drink); err != nil {
				return 0, translateRepoError(err, "failed to seed drinks")
			}
		}
		return len(defaults), nil
	})
	if err != nil {
		return 0, err
	}

	if seeded > 0 {
		s.logger.Info("default drinks seeded", zap.Int("count", seeded))
	}
	return seeded, nil
}

// translateRepoError maps repository sentinels onto the domain error taxonomy
func translateRepoError(err error, message string) error {
	switch {
	case services.GetErrorType(err) != "":
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return services.WrapError(services.ErrorTypeNotFound, services.ErrDrinkNotFound.Message, err)
	case errors.Is(err, repositories.ErrDuplicate):
		return services.WrapError(services.ErrorTypeConflict, services.ErrDuplicateTitle.Message, err)
	default:
		return services.WrapInternal(message, err)
	}
}

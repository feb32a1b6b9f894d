package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/upb/coffee-shop/models"
	"github.com/upb/coffee-shop/repositories"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// DrinkRepository implements the repositories.DrinkRepository interface
type DrinkRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDrinkRepository creates a new drink repository
func NewDrinkRepository(db *DB, logger *zap.Logger) repositories.DrinkRepository {
	return &DrinkRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all drinks ordered by id
func (r *DrinkRepository) List(ctx context.Context) ([]*models.Drink, error) {
	query := `
		SELECT id, title, recipe, created_at, updated_at
		FROM drinks
		ORDER BY id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list drinks: %w", err)
	}
	defer rows.Close()

	drinks := []*models.Drink{}
	for rows.Next() {
		drink := &models.Drink{}
		err := rows.Scan(
			&drink.ID,
			&drink.Title,
			&drink.Recipe,
			&drink.CreatedAt,
			&drink.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drink: %w", err)
		}
		drinks = append(drinks, drink)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drinks: %w", err)
	}

	return drinks, nil
}

// GetByID retrieves a drink by ID
func (r *DrinkRepository) GetByID(ctx context.Context, id int) (*models.Drink, error) {
	query := `
		SELECT id, title, recipe, created_at, updated_at
		FROM drinks
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	drink := &models.Drink{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&drink.ID,
		&drink.Title,
		&drink.Recipe,
		&drink.CreatedAt,
		&drink.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("drink %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get drink: %w", err)
	}

	return drink, nil
}

// Create inserts a new drink and sets its generated ID
func (r *DrinkRepository) Create(ctx context.Context, drink *models.Drink) error {
	query := `
		INSERT INTO drinks (title, recipe, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		drink.Title,
		drink.Recipe,
		drink.CreatedAt,
		drink.UpdatedAt,
	).Scan(&drink.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("drink %q: %w", drink.Title, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create drink: %w", err)
	}

	r.logger.Debug("drink created", zap.Int("id", drink.ID), zap.String("title", drink.Title))
	return nil
}

// Update overwrites title and recipe of an existing drink
func (r *DrinkRepository) Update(ctx context.Context, drink *models.Drink) error {
	query := `
		UPDATE drinks
		SET title = $2, recipe = $3, updated_at = $4
		WHERE id = $1
	`

	drink.UpdatedAt = time.Now()

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		drink.ID,
		drink.Title,
		drink.Recipe,
		drink.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("drink %q: %w", drink.Title, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to update drink: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("drink %d: %w", drink.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("drink updated", zap.Int("id", drink.ID))
	return nil
}

// Delete deletes a drink by ID
func (r *DrinkRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM drinks WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete drink: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("drink %d: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("drink deleted", zap.Int("id", id))
	return nil
}

// Count returns the number of drinks
func (r *DrinkRepository) Count(ctx context.Context) (int, error) {
	var count int
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM drinks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count drinks: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

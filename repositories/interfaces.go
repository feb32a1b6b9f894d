package repositories

import (
	"context"
	"errors"

	"github.com/upb/coffee-shop/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert or update violates a unique constraint
var ErrDuplicate = errors.New("duplicate record")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction.
	// Repositories called with it run their statements inside the transaction.
	Context() context.Context
}

// DrinkRepository handles drink data operations
type DrinkRepository interface {
	// List retrieves all drinks ordered by id
	List(ctx context.Context) ([]*models.Drink, error)

	// GetByID retrieves a drink by ID, ErrNotFound if absent
	GetByID(ctx context.Context, id int) (*models.Drink, error)

	// Create inserts a drink and sets its generated ID
	Create(ctx context.Context, drink *models.Drink) error

	// Update overwrites title and recipe of an existing drink
	Update(ctx context.Context, drink *models.Drink) error

	// Delete deletes a drink by ID, ErrNotFound if absent
	Delete(ctx context.Context, id int) error

	// Count returns the number of drinks
	Count(ctx context.Context) (int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Drinks DrinkRepository
}

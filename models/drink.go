package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Ingredient is one component of a drink recipe
type Ingredient struct {
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color" validate:"required,max=40"`
	Parts int    `json:"parts" validate:"required,gte=1"`
}

// Recipe is the ordered list of ingredients of a drink.
// It is always stored as a JSON array; a single ingredient object is
// accepted on input and normalised to a one-element recipe.
type Recipe []Ingredient

// UnmarshalJSON accepts either an array of ingredients or a single ingredient
func (r *Recipe) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Ingredient
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*r = Recipe{single}
		return nil
	}

	var list []Ingredient
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*r = list
	return nil
}

// Value implements driver.Valuer, encoding the recipe as a JSON array
func (r Recipe) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Ingredient(r))
}

// Scan implements sql.Scanner for JSONB columns
func (r *Recipe) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*r = Recipe{}
		return nil
	default:
		return fmt.Errorf("unsupported recipe column type %T", src)
	}
	return r.UnmarshalJSON(data)
}

// Drink represents a menu item
type Drink struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Recipe    Recipe    `json:"recipe" db:"recipe"` // JSONB array
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Drink model
func (Drink) TableName() string {
	return "drinks"
}

// NewDrink creates a new Drink instance; the id is assigned on insert
func NewDrink(title string, recipe Recipe) *Drink {
	now := time.Now()
	return &Drink{
		Title:     title,
		Recipe:    recipe,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ErrEmptyRecipe is returned by Validate for a drink without ingredients
var ErrEmptyRecipe = errors.New("recipe must contain at least one ingredient")

// Validate checks the invariants that hold for every persisted drink
func (d *Drink) Validate() error {
	if d.Title == "" {
		return errors.New("title is required")
	}
	if len(d.Recipe) == 0 {
		return ErrEmptyRecipe
	}
	return nil
}

// ShortIngredient is an ingredient without its quantity
type ShortIngredient struct {
	Color string `json:"color"`
	Name  string `json:"name"`
}

// DrinkShort is the public menu representation of a drink
type DrinkShort struct {
	ID     int               `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// DrinkLong is the full representation including quantities
type DrinkLong struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Recipe Recipe `json:"recipe"`
}

// Short returns the short view of the drink
func (d *Drink) Short() DrinkShort {
	recipe := make([]ShortIngredient, len(d.Recipe))
	for i, ing := range d.Recipe {
		recipe[i] = ShortIngredient{Color: ing.Color, Name: ing.Name}
	}
	return DrinkShort{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long returns the long view of the drink
func (d *Drink) Long() DrinkLong {
	recipe := d.Recipe
	if recipe == nil {
		recipe = Recipe{}
	}
	return DrinkLong{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// DefaultDrinks is the menu seeded into an empty database
func DefaultDrinks() []*Drink {
	return []*Drink{
		NewDrink("water", Recipe{{Name: "water", Color: "blue", Parts: 1}}),
	}
}

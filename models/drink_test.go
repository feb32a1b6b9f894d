package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDrink(t *testing.T) {
	recipe := Recipe{{Name: "espresso", Color: "brown", Parts: 1}}

	drink := NewDrink("espresso", recipe)

	assert.Zero(t, drink.ID)
	assert.Equal(t, "espresso", drink.Title)
	assert.Equal(t, recipe, drink.Recipe)
	assert.False(t, drink.CreatedAt.IsZero())
	assert.Equal(t, drink.CreatedAt, drink.UpdatedAt)
}

func TestDrink_TableName(t *testing.T) {
	drink := Drink{}
	assert.Equal(t, "drinks", drink.TableName())
}

func TestDrink_Validate(t *testing.T) {
	assert.NoError(t, NewDrink("water", Recipe{{Name: "water", Color: "blue", Parts: 1}}).Validate())
	assert.Error(t, NewDrink("", Recipe{{Name: "water", Color: "blue", Parts: 1}}).Validate())
	assert.ErrorIs(t, NewDrink("water", nil).Validate(), ErrEmptyRecipe)
}

func TestRecipe_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Recipe
		wantErr bool
	}{
		{
			name:  "array of ingredients",
			input: `[{"name":"milk","color":"grey","parts":1},{"name":"coffee","color":"brown","parts":3}]`,
			want: Recipe{
				{Name: "milk", Color: "grey", Parts: 1},
				{Name: "coffee", Color: "brown", Parts: 3},
			},
		},
		{
			name:  "single object is normalised to a list",
			input: `  {"name":"water","color":"blue","parts":1}`,
			want:  Recipe{{Name: "water", Color: "blue", Parts: 1}},
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  Recipe{},
		},
		{
			name:    "string is rejected",
			input:   `"water"`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			input:   `{"name":"water","color":"blue","parts":"one"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recipe Recipe
			err := json.Unmarshal([]byte(tt.input), &recipe)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, recipe)
		})
	}
}

func TestRecipe_ValueAndScan(t *testing.T) {
	recipe := Recipe{{Name: "water", Color: "blue", Parts: 1}}

	value, err := recipe.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"water","color":"blue","parts":1}]`, string(value.([]byte)))

	empty, err := Recipe(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), empty)

	var scanned Recipe
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, recipe, scanned)

	require.NoError(t, scanned.Scan(`{"name":"tea","color":"green","parts":2}`))
	assert.Equal(t, Recipe{{Name: "tea", Color: "green", Parts: 2}}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestDrink_Views(t *testing.T) {
	drink := &Drink{
		ID:    7,
		Title: "latte",
		Recipe: Recipe{
			{Name: "milk", Color: "grey", Parts: 3},
			{Name: "coffee", Color: "brown", Parts: 1},
		},
	}

	short, err := json.Marshal(drink.Short())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"title":"latte","recipe":[{"color":"grey","name":"milk"},{"color":"brown","name":"coffee"}]}`, string(short))
	assert.NotContains(t, string(short), "parts")

	long, err := json.Marshal(drink.Long())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"title":"latte","recipe":[{"name":"milk","color":"grey","parts":3},{"name":"coffee","color":"brown","parts":1}]}`, string(long))
}

func TestDrink_ViewsWithoutRecipe(t *testing.T) {
	drink := &Drink{ID: 1, Title: "nothing"}

	short, err := json.Marshal(drink.Short())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"nothing","recipe":[]}`, string(short))

	long, err := json.Marshal(drink.Long())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"nothing","recipe":[]}`, string(long))
}

func TestDefaultDrinks(t *testing.T) {
	drinks := DefaultDrinks()
	require.Len(t, drinks, 1)
	assert.Equal(t, "water", drinks[0].Title)
	assert.Equal(t, Recipe{{Name: "water", Color: "blue", Parts: 1}}, drinks[0].Recipe)
}

package models

import (
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/shopspring/decimal"
)

// Recipe belongs to exactly one user
type Recipe struct {
	_           struct{}        `dbdef:"table:recipes;index:idx_recipes_user_id,user_id"`
	ID          int64           `db:"id" dbdef:"type:bigint;primary_key;identity"`
	UserID      int64           `db:"user_id" dbdef:"type:bigint;not_null;foreign_key:users.id;on_delete:CASCADE"`
	Title       string          `db:"title" dbdef:"type:varchar(255);not_null"`
	Description string          `db:"description" dbdef:"type:text;not_null;default:''"`
	TimeMinutes int             `db:"time_minutes" dbdef:"type:integer;not_null;check:time_minutes >= 0"`
	Price       decimal.Decimal `db:"price" dbdef:"type:numeric(5,2);not_null;check:price >= 0"`
	Link        string          `db:"link" dbdef:"type:varchar(255);not_null;default:''"`
}

func (r Recipe) String() string {
	return r.Title
}

// RecipeColumns names the recipes table columns for building conditions
type RecipeColumns struct {
	ID          orm.NumericColumn[int64]
	UserID      orm.NumericColumn[int64]
	Title       orm.StringColumn
	TimeMinutes orm.NumericColumn[int]
}

var Recipes = RecipeColumns{
	ID:          orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id", Table: "recipes"}}},
	UserID:      orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "user_id", Table: "recipes"}}},
	Title:       orm.StringColumn{Column: orm.Column[string]{Name: "title", Table: "recipes"}},
	TimeMinutes: orm.NumericColumn[int]{ComparableColumn: orm.ComparableColumn[int]{Column: orm.Column[int]{Name: "time_minutes", Table: "recipes"}}},
}

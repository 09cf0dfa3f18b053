package models

import (
	"testing"

	"github.com/eleven-am/recipe-api/internal/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeString(t *testing.T) {
	r := Recipe{Title: "Sample recipe name", TimeMinutes: 5, Price: decimal.RequireFromString("5.00")}
	assert.Equal(t, "Sample recipe name", r.String())
}

func TestUserString(t *testing.T) {
	assert.Equal(t, "test@example.com", User{Email: "test@example.com"}.String())
}

func TestSchema(t *testing.T) {
	db, err := schema.FromModels(All()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "auth_tokens", "recipes"}, db.GetTableNames())

	ddl := db.DDL()
	assert.Contains(t, ddl, "email varchar(255) NOT NULL UNIQUE")
	assert.Contains(t, ddl, "user_id bigint NOT NULL REFERENCES users(id) ON DELETE CASCADE")
	assert.Contains(t, ddl, "price numeric(5,2) NOT NULL CHECK (price >= 0)")
	assert.Contains(t, ddl, "time_minutes integer NOT NULL CHECK (time_minutes >= 0)")
	assert.Contains(t, ddl, "user_id bigint NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE")
	assert.Contains(t, ddl, "CREATE INDEX idx_recipes_user_id ON recipes (user_id);")
	assert.Contains(t, ddl, "last_login timestamptz,")
}

func TestColumnsMatchTables(t *testing.T) {
	assert.Equal(t, "users.email", Users.Email.String())
	assert.Equal(t, "recipes.user_id", Recipes.UserID.String())
	assert.Equal(t, "auth_tokens.key", Tokens.Key.String())
}

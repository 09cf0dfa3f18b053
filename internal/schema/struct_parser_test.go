package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	_         struct{}   `dbdef:"table:accounts;index:idx_accounts_email,email"`
	ID        int64      `db:"id" dbdef:"type:bigint;primary_key;identity"`
	Email     string     `db:"email" dbdef:"type:varchar(255);not_null;unique"`
	LastLogin *time.Time `db:"last_login" dbdef:"type:timestamptz"`
	Scratch   string     `db:"-"`
	Cache     string
	internal  string
}

type BlogPost struct {
	ID        int64  `db:"id" dbdef:"type:bigint;primary_key"`
	AccountID int64  `db:"account_id" dbdef:"type:bigint;not_null;foreign_key:accounts.id;on_delete:CASCADE"`
	Title     string `db:"title" dbdef:"type:varchar(255);not_null"`
}

func TestStructParser_ParseModel(t *testing.T) {
	parser := NewStructParser()

	def, err := parser.ParseModel(&account{})
	require.NoError(t, err)

	assert.Equal(t, "account", def.StructName)
	assert.Equal(t, "accounts", def.TableName)
	assert.Equal(t, "idx_accounts_email,email", def.TableLevel["index"])

	require.Len(t, def.Fields, 3)
	assert.Equal(t, "id", def.Fields[0].DBName)
	assert.Equal(t, "int64", def.Fields[0].Type)
	assert.Equal(t, "email", def.Fields[1].DBName)
	assert.True(t, def.Fields[2].IsPointer)
	assert.Equal(t, "*time.Time", def.Fields[2].Type)
	assert.Equal(t, []string{"id"}, def.PrimaryKeys())
}

func TestStructParser_DefaultTableName(t *testing.T) {
	def, err := NewStructParser().ParseModel(BlogPost{})
	require.NoError(t, err)
	assert.Equal(t, "blog_posts", def.TableName)
}

func TestStructParser_Errors(t *testing.T) {
	parser := NewStructParser()

	_, err := parser.ParseModel(nil)
	assert.Error(t, err)

	_, err = parser.ParseModel(42)
	assert.Error(t, err)

	type invalid struct {
		ID int64 `db:"id" dbdef:"type:bigint;primary_key:yes"`
	}
	_, err = parser.ParseModel(invalid{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid.ID")

	type empty struct {
		Name string
	}
	_, err = parser.ParseModel(empty{})
	assert.Error(t, err)
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"User":       "user",
		"BlogPost":   "blog_post",
		"HTTPServer": "http_server",
		"AuthToken":  "auth_token",
	}
	for in, want := range cases {
		assert.Equal(t, want, toSnakeCase(in), in)
	}
}

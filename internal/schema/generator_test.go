package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type genUser struct {
	_     struct{} `dbdef:"table:gen_users"`
	ID    int64    `db:"id" dbdef:"type:bigint;primary_key;identity"`
	Email string   `db:"email" dbdef:"type:varchar(255);not_null;unique"`
	Name  string   `db:"name" dbdef:"type:varchar(255);not_null;default:''"`
}

type genItem struct {
	_      struct{} `dbdef:"table:gen_items;index:idx_gen_items_owner,owner_id;unique:uq_gen_items_title,owner_id,title"`
	ID     int64    `db:"id" dbdef:"type:bigint;primary_key;identity"`
	Owner  int64    `db:"owner_id" dbdef:"type:bigint;not_null;foreign_key:gen_users.id;on_delete:cascade"`
	Title  string   `db:"title" dbdef:"type:varchar(255);not_null"`
	Amount float64  `db:"amount" dbdef:"not_null;check:amount >= 0"`
}

func TestFromModels_DependencyOrder(t *testing.T) {
	// items listed first still sort after the table they reference
	schema, err := FromModels(genItem{}, genUser{})
	require.NoError(t, err)

	assert.Equal(t, []string{"gen_users", "gen_items"}, schema.GetTableNames())
	assert.True(t, schema.HasTable("gen_items"))
	assert.False(t, schema.HasTable("missing"))
}

func TestGenerateSchema_Columns(t *testing.T) {
	schema, err := FromModels(genUser{}, genItem{})
	require.NoError(t, err)

	items := schema.Tables["gen_items"]
	require.Len(t, items.Columns, 4)

	owner := items.Columns[1]
	require.NotNil(t, owner.ForeignKey)
	assert.Equal(t, "gen_users", owner.ForeignKey.ReferencedTable)
	assert.Equal(t, "CASCADE", owner.ForeignKey.OnDelete)
	assert.False(t, owner.IsNullable)

	amount := items.Columns[3]
	assert.Equal(t, "double precision", amount.Type)
	require.NotNil(t, amount.CheckConstraint)

	require.Len(t, items.Indexes, 1)
	assert.Equal(t, []string{"owner_id"}, items.Indexes[0].Columns)

	require.Len(t, items.Constraints, 2)
	assert.Equal(t, "PRIMARY KEY", items.Constraints[0].Type)
	assert.Equal(t, "UNIQUE", items.Constraints[1].Type)
}

func TestDatabaseSchema_DDL(t *testing.T) {
	schema, err := FromModels(genUser{}, genItem{})
	require.NoError(t, err)

	ddl := schema.DDL()

	assert.Contains(t, ddl, "id bigint GENERATED BY DEFAULT AS IDENTITY NOT NULL")
	assert.Contains(t, ddl, "email varchar(255) NOT NULL UNIQUE")
	assert.Contains(t, ddl, "name varchar(255) NOT NULL DEFAULT ''")
	assert.Contains(t, ddl, "owner_id bigint NOT NULL REFERENCES gen_users(id) ON DELETE CASCADE")
	assert.Contains(t, ddl, "CHECK (amount >= 0)")
	assert.Contains(t, ddl, "CONSTRAINT gen_users_pkey PRIMARY KEY (id)")
	assert.Contains(t, ddl, "CONSTRAINT uq_gen_items_title UNIQUE (owner_id, title)")
	assert.Contains(t, ddl, "CREATE INDEX idx_gen_items_owner ON gen_items (owner_id);")

	assert.Less(t, strings.Index(ddl, "CREATE TABLE gen_users"), strings.Index(ddl, "CREATE TABLE gen_items"))
	assert.Greater(t, strings.Index(ddl, "CREATE INDEX"), strings.Index(ddl, "CREATE TABLE gen_items"))
}

func TestGenerateSchema_Errors(t *testing.T) {
	type noPK struct {
		Name string `db:"name" dbdef:"type:text"`
	}
	_, err := FromModels(noPK{})
	assert.ErrorContains(t, err, "no primary key")

	type orphan struct {
		ID     int64 `db:"id" dbdef:"type:bigint;primary_key"`
		Parent int64 `db:"parent_id" dbdef:"type:bigint;fk:nowhere.id"`
	}
	_, err = FromModels(orphan{})
	assert.ErrorContains(t, err, "unknown table nowhere")

	type untyped struct {
		ID   int64          `db:"id" dbdef:"type:bigint;primary_key"`
		Tags map[string]int `db:"tags"`
	}
	_, err = FromModels(untyped{})
	assert.ErrorContains(t, err, "no column type")

	_, err = FromModels(genUser{}, genUser{})
	assert.ErrorContains(t, err, "defined twice")
}

func TestParseIndexDefinition(t *testing.T) {
	idx, err := parseIndexDefinition("idx_x, a, b, unique")
	require.NoError(t, err)
	assert.Equal(t, "idx_x", idx.Name)
	assert.Equal(t, []string{"a", "b"}, idx.Columns)
	assert.True(t, idx.IsUnique)

	_, err = parseIndexDefinition("idx_only")
	assert.Error(t, err)
}

package cli

import (
	"bytes"
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/eleven-am/recipe-api/internal/migrator"
	"github.com/stretchr/testify/assert"
)

func TestReportDrift(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, reportDrift(&migrator.Plan{}, &out))
	assert.Equal(t, "Schema is up to date.\n", out.String())

	out.Reset()
	plan := &migrator.Plan{
		Statements: []string{`ALTER TABLE "recipes" ADD COLUMN "link" character varying(255)`},
		Changes: []schema.Change{&schema.ModifyTable{
			T:       &schema.Table{Name: "recipes"},
			Changes: []schema.Change{&schema.AddColumn{C: &schema.Column{Name: "link"}}},
		}},
	}
	err := reportDrift(plan, &out)
	assert.EqualError(t, err, "schema differs from models: 1 pending statement(s), run 'recipes migrate'")
	assert.Equal(t, "  Modify table recipes (1 changes)\n", out.String())
}

package migrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/jmoiron/sqlx"
)

// ErrDestructive blocks plans that drop objects unless explicitly allowed
var ErrDestructive = errors.New("plan contains destructive changes")

// Plan is the ordered set of statements that moves a database to the target schema
type Plan struct {
	Statements []string
	Changes    []schema.Change
}

// Empty reports whether the database already matches the target
func (p *Plan) Empty() bool {
	return p == nil || len(p.Statements) == 0
}

// Destructive lists the changes that drop tables, columns, indexes or keys
func (p *Plan) Destructive() []string {
	_, descriptions := CountDestructiveChanges(p.Changes)
	return descriptions
}

// Rollback returns best-effort reversal statements in reverse order
func (p *Plan) Rollback() []string {
	out := make([]string, 0, len(p.Statements))
	for i := len(p.Statements) - 1; i >= 0; i-- {
		out = append(out, ReverseStatement(p.Statements[i]))
	}
	return out
}

// Migrator diffs a live database against a target DDL with Atlas
type Migrator struct {
	config        *DBConfig
	tempDBManager *TempDBManager
}

func NewMigrator(config *DBConfig) *Migrator {
	return &Migrator{
		config:        config,
		tempDBManager: NewTempDBManager(config),
	}
}

// Plan loads targetDDL into a scratch database, inspects both sides and
// returns the statements that turn the current schema into the target.
func (m *Migrator) Plan(ctx context.Context, current *sqlx.DB, targetDDL string) (*Plan, error) {
	log := logger.Atlas()

	sourceDriver, err := postgres.Open(current)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	currentRealm, err := sourceDriver.InspectRealm(ctx, &schema.InspectRealmOption{Schemas: []string{"public"}})
	if err != nil {
		return nil, fmt.Errorf("failed to inspect current schema: %w", err)
	}

	tempDBName := fmt.Sprintf("temp_atlas_%d", time.Now().UnixNano())
	tempDB, cleanup, err := m.tempDBManager.CreateTempDB(ctx, tempDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp database: %w", err)
	}
	defer cleanup()

	if _, err := tempDB.ExecContext(ctx, targetDDL); err != nil {
		return nil, fmt.Errorf("failed to execute DDL in temp database: %w", err)
	}

	targetDriver, err := postgres.Open(tempDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create target driver: %w", err)
	}

	targetRealm, err := targetDriver.InspectRealm(ctx, &schema.InspectRealmOption{Schemas: []string{"public"}})
	if err != nil {
		return nil, fmt.Errorf("failed to inspect target schema: %w", err)
	}

	changes, err := sourceDriver.RealmDiff(currentRealm, targetRealm)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate diff: %w", err)
	}
	log.WithField("changes", len(changes)).Debug("computed schema diff")

	if len(changes) == 0 {
		return &Plan{}, nil
	}

	statements, err := GenerateAtlasSQL(ctx, sourceDriver, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}

	return &Plan{Statements: statements, Changes: changes}, nil
}

// GenerateAtlasSQL renders changes as SQL statements in execution order
func GenerateAtlasSQL(ctx context.Context, driver migrate.Driver, changes []schema.Change) ([]string, error) {
	plan, err := driver.PlanChanges(ctx, "", changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	statements := make([]string, len(plan.Changes))
	for i, change := range plan.Changes {
		statements[i] = change.Cmd
	}
	return statements, nil
}

// Apply runs the plan in one transaction. Destructive plans need allowDestructive.
func Apply(ctx context.Context, db *sqlx.DB, plan *Plan, allowDestructive bool) error {
	if plan.Empty() {
		return nil
	}
	if destructive := plan.Destructive(); len(destructive) > 0 && !allowDestructive {
		return fmt.Errorf("%w: %v", ErrDestructive, destructive)
	}

	log := logger.Migration()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range plan.Statements {
		log.Debug("[%d/%d] %s", i+1, len(plan.Statements), stmt)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.WithField("statements", len(plan.Statements)).Info("migration applied")
	return nil
}

func IsDestructiveChange(change schema.Change) bool {
	switch c := change.(type) {
	case *schema.DropTable, *schema.DropColumn, *schema.DropIndex, *schema.DropForeignKey, *schema.DropCheck:
		return true
	case *schema.ModifyTable:
		for _, sub := range c.Changes {
			if IsDestructiveChange(sub) {
				return true
			}
		}
	}
	return false
}

func DescribeChange(change schema.Change) string {
	switch c := change.(type) {
	case *schema.AddTable:
		return fmt.Sprintf("Create table %s", c.T.Name)
	case *schema.DropTable:
		return fmt.Sprintf("Drop table %s", c.T.Name)
	case *schema.ModifyTable:
		return fmt.Sprintf("Modify table %s (%d changes)", c.T.Name, len(c.Changes))
	case *schema.AddColumn:
		return fmt.Sprintf("Add column %s", c.C.Name)
	case *schema.DropColumn:
		return fmt.Sprintf("Drop column %s", c.C.Name)
	case *schema.ModifyColumn:
		return fmt.Sprintf("Modify column %s", c.To.Name)
	case *schema.AddIndex:
		return fmt.Sprintf("Add index %s", c.I.Name)
	case *schema.DropIndex:
		return fmt.Sprintf("Drop index %s", c.I.Name)
	case *schema.AddForeignKey:
		return fmt.Sprintf("Add foreign key %s", c.F.Symbol)
	case *schema.DropForeignKey:
		return fmt.Sprintf("Drop foreign key %s", c.F.Symbol)
	case *schema.DropCheck:
		return fmt.Sprintf("Drop check %s", c.C.Name)
	default:
		return fmt.Sprintf("Change type %T", change)
	}
}

func CountDestructiveChanges(changes []schema.Change) (count int, descriptions []string) {
	for _, change := range changes {
		if IsDestructiveChange(change) {
			count++
			descriptions = append(descriptions, DescribeChange(change))
		}
	}
	return count, descriptions
}

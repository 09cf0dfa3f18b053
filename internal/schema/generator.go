package schema

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaColumn represents a column in the target database schema
type SchemaColumn struct {
	Name            string
	Type            string
	IsNullable      bool
	DefaultValue    *string
	IsPrimaryKey    bool
	IsUnique        bool
	IsIdentity      bool
	ForeignKey      *ForeignKeyRef
	CheckConstraint *string
}

// ForeignKeyRef represents a foreign key reference
type ForeignKeyRef struct {
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         string
	OnUpdate         string
}

// SchemaTable represents a table in the target database schema
type SchemaTable struct {
	Name        string
	Columns     []SchemaColumn
	Indexes     []SchemaIndex
	Constraints []SchemaConstraint
}

// SchemaIndex represents a secondary index
type SchemaIndex struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// SchemaConstraint represents a table constraint
type SchemaConstraint struct {
	Name       string
	Type       string // CHECK, UNIQUE, PRIMARY KEY
	Definition string
	Columns    []string
}

// DatabaseSchema represents the complete target database schema
type DatabaseSchema struct {
	Tables map[string]SchemaTable
}

// SchemaGenerator converts parsed struct definitions to database schema
type SchemaGenerator struct {
	tagParser *TagParser
}

// NewSchemaGenerator creates a new schema generator
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{tagParser: NewTagParser()}
}

// FromModels parses the models and generates their schema in one step
func FromModels(models ...interface{}) (*DatabaseSchema, error) {
	tables, err := NewStructParser().ParseModels(models...)
	if err != nil {
		return nil, err
	}
	return NewSchemaGenerator().GenerateSchema(tables)
}

// GenerateSchema converts table definitions to database schema
func (g *SchemaGenerator) GenerateSchema(tables []TableDefinition) (*DatabaseSchema, error) {
	schema := &DatabaseSchema{Tables: make(map[string]SchemaTable)}

	for _, tableDef := range tables {
		if _, exists := schema.Tables[tableDef.TableName]; exists {
			return nil, fmt.Errorf("table %s defined twice", tableDef.TableName)
		}
		table, err := g.generateTable(tableDef)
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for table %s: %w", tableDef.TableName, err)
		}
		schema.Tables[table.Name] = table
	}

	for _, table := range schema.Tables {
		for _, col := range table.Columns {
			if col.ForeignKey != nil && !schema.HasTable(col.ForeignKey.ReferencedTable) {
				return nil, fmt.Errorf("table %s: column %s references unknown table %s",
					table.Name, col.Name, col.ForeignKey.ReferencedTable)
			}
		}
	}

	return schema, nil
}

func (g *SchemaGenerator) generateTable(tableDef TableDefinition) (SchemaTable, error) {
	table := SchemaTable{Name: tableDef.TableName}

	for _, field := range tableDef.Fields {
		column, err := g.generateColumn(field)
		if err != nil {
			return table, fmt.Errorf("failed to generate column %s: %w", field.Name, err)
		}
		table.Columns = append(table.Columns, column)
	}

	if err := g.processTableLevel(tableDef.TableLevel, &table); err != nil {
		return table, fmt.Errorf("failed to process table-level definitions: %w", err)
	}

	var primaryKeys []string
	for _, column := range table.Columns {
		if column.IsPrimaryKey {
			primaryKeys = append(primaryKeys, column.Name)
		}
	}
	if len(primaryKeys) == 0 {
		return table, fmt.Errorf("no primary key defined")
	}
	table.Constraints = append([]SchemaConstraint{{
		Name:    table.Name + "_pkey",
		Type:    "PRIMARY KEY",
		Columns: primaryKeys,
	}}, table.Constraints...)

	return table, nil
}

func (g *SchemaGenerator) generateColumn(field FieldDefinition) (SchemaColumn, error) {
	column := SchemaColumn{Name: field.DBName}

	pgType, err := g.mapGoTypeToPostgreSQL(field.Type, field.DBDef)
	if err != nil {
		return column, err
	}
	column.Type = pgType

	column.IsNullable = field.IsPointer || !g.tagParser.HasFlag(field.DBDef, "not_null")
	column.IsPrimaryKey = g.tagParser.HasFlag(field.DBDef, "primary_key")
	if column.IsPrimaryKey {
		column.IsNullable = false
	}
	column.IsUnique = g.tagParser.HasFlag(field.DBDef, "unique")
	column.IsIdentity = g.tagParser.HasFlag(field.DBDef, "identity") ||
		g.tagParser.HasFlag(field.DBDef, "auto_increment")

	if defaultVal := g.tagParser.GetDefault(field.DBDef); defaultVal != "" {
		column.DefaultValue = &defaultVal
	}

	if fkRef := g.tagParser.GetForeignKey(field.DBDef); fkRef != "" {
		parts := strings.Split(fkRef, ".")
		if len(parts) != 2 {
			return column, fmt.Errorf("foreign key must be in format 'table.column', got: %s", fkRef)
		}
		column.ForeignKey = &ForeignKeyRef{
			ReferencedTable:  strings.TrimSpace(parts[0]),
			ReferencedColumn: strings.TrimSpace(parts[1]),
			OnDelete:         strings.ToUpper(field.DBDef["on_delete"]),
			OnUpdate:         strings.ToUpper(field.DBDef["on_update"]),
		}
	}

	if checkExpr, exists := field.DBDef["check"]; exists {
		column.CheckConstraint = &checkExpr
	}

	return column, nil
}

// mapGoTypeToPostgreSQL maps Go types to PostgreSQL types when dbdef names none
func (g *SchemaGenerator) mapGoTypeToPostgreSQL(goType string, dbDef map[string]string) (string, error) {
	if pgType := g.tagParser.GetType(dbDef); pgType != "" {
		return pgType, nil
	}

	switch strings.TrimPrefix(goType, "*") {
	case "string":
		return "text", nil
	case "int", "int32":
		return "integer", nil
	case "int64":
		return "bigint", nil
	case "int16":
		return "smallint", nil
	case "float32":
		return "real", nil
	case "float64":
		return "double precision", nil
	case "bool":
		return "boolean", nil
	case "time.Time":
		return "timestamptz", nil
	case "decimal.Decimal":
		return "numeric", nil
	default:
		return "", fmt.Errorf("no column type for Go type %s, add type: to the dbdef tag", goType)
	}
}

func (g *SchemaGenerator) processTableLevel(tableLevelDef map[string]string, table *SchemaTable) error {
	keys := make([]string, 0, len(tableLevelDef))
	for key := range tableLevelDef {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := tableLevelDef[key]
		switch key {
		case "table":
			continue
		case "index", "unique_index":
			for _, def := range strings.Split(value, ";") {
				index, err := parseIndexDefinition(def)
				if err != nil {
					return err
				}
				index.IsUnique = index.IsUnique || key == "unique_index"
				table.Indexes = append(table.Indexes, index)
			}
		case "unique":
			for _, def := range strings.Split(value, ";") {
				parts := splitList(def)
				if len(parts) < 2 {
					return fmt.Errorf("unique constraint must have name and columns: %s", def)
				}
				table.Constraints = append(table.Constraints, SchemaConstraint{
					Name:    parts[0],
					Type:    "UNIQUE",
					Columns: parts[1:],
				})
			}
		case "check":
			for _, def := range strings.Split(value, ";") {
				parts := strings.SplitN(def, ",", 2)
				if len(parts) != 2 {
					return fmt.Errorf("check constraint must have name and expression: %s", def)
				}
				table.Constraints = append(table.Constraints, SchemaConstraint{
					Name:       strings.TrimSpace(parts[0]),
					Type:       "CHECK",
					Definition: strings.TrimSpace(parts[1]),
				})
			}
		default:
			return fmt.Errorf("unknown table-level attribute '%s'", key)
		}
	}

	return nil
}

// parseIndexDefinition parses "idx_name,column1,column2[,unique]"
func parseIndexDefinition(def string) (SchemaIndex, error) {
	parts := splitList(def)
	if len(parts) < 2 {
		return SchemaIndex{}, fmt.Errorf("index definition must have at least name and one column: %s", def)
	}

	index := SchemaIndex{Name: parts[0]}
	for _, part := range parts[1:] {
		if strings.EqualFold(part, "unique") {
			index.IsUnique = true
			continue
		}
		index.Columns = append(index.Columns, part)
	}

	if len(index.Columns) == 0 {
		return SchemaIndex{}, fmt.Errorf("index must have at least one column: %s", def)
	}
	return index, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasTable checks if a table exists in the schema
func (s *DatabaseSchema) HasTable(tableName string) bool {
	_, exists := s.Tables[tableName]
	return exists
}

// GetTableNames returns table names ordered so referenced tables come first
func (s *DatabaseSchema) GetTableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	result := make([]string, 0, len(names))

	var visit func(string) bool
	visit = func(table string) bool {
		if visiting[table] {
			return false
		}
		if visited[table] {
			return true
		}
		visiting[table] = true
		for _, col := range s.Tables[table].Columns {
			if col.ForeignKey != nil && col.ForeignKey.ReferencedTable != table {
				if !visit(col.ForeignKey.ReferencedTable) {
					return false
				}
			}
		}
		visiting[table] = false
		visited[table] = true
		result = append(result, table)
		return true
	}

	for _, name := range names {
		if !visit(name) {
			// circular references: creation order cannot satisfy them, fall back to names
			return names
		}
	}
	return result
}

// Statements renders CREATE TABLE and CREATE INDEX statements in dependency order
func (s *DatabaseSchema) Statements() []string {
	var stmts []string
	var indexes []string

	for _, name := range s.GetTableNames() {
		table := s.Tables[name]
		stmts = append(stmts, generateCreateTable(table))
		for _, idx := range table.Indexes {
			indexes = append(indexes, generateCreateIndex(table.Name, idx))
		}
	}

	return append(stmts, indexes...)
}

// DDL joins Statements into a single script
func (s *DatabaseSchema) DDL() string {
	return strings.Join(s.Statements(), "\n\n") + "\n"
}

func generateCreateTable(table SchemaTable) string {
	lines := make([]string, 0, len(table.Columns)+len(table.Constraints))
	for _, col := range table.Columns {
		lines = append(lines, "    "+generateColumnDefinition(col))
	}
	for _, con := range table.Constraints {
		lines = append(lines, "    "+generateConstraintDefinition(con))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table.Name, strings.Join(lines, ",\n"))
}

func generateColumnDefinition(col SchemaColumn) string {
	parts := []string{col.Name, col.Type}

	if col.IsIdentity {
		parts = append(parts, "GENERATED BY DEFAULT AS IDENTITY")
	}

	if !col.IsNullable {
		parts = append(parts, "NOT NULL")
	}

	if col.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	if col.IsUnique && !col.IsPrimaryKey {
		parts = append(parts, "UNIQUE")
	}

	if col.ForeignKey != nil {
		parts = append(parts, fmt.Sprintf("REFERENCES %s(%s)",
			col.ForeignKey.ReferencedTable, col.ForeignKey.ReferencedColumn))

		if col.ForeignKey.OnDelete != "" && col.ForeignKey.OnDelete != "NO ACTION" {
			parts = append(parts, fmt.Sprintf("ON DELETE %s", col.ForeignKey.OnDelete))
		}
		if col.ForeignKey.OnUpdate != "" && col.ForeignKey.OnUpdate != "NO ACTION" {
			parts = append(parts, fmt.Sprintf("ON UPDATE %s", col.ForeignKey.OnUpdate))
		}
	}

	if col.CheckConstraint != nil {
		parts = append(parts, fmt.Sprintf("CHECK (%s)", *col.CheckConstraint))
	}

	return strings.Join(parts, " ")
}

func generateConstraintDefinition(con SchemaConstraint) string {
	switch con.Type {
	case "CHECK":
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", con.Name, con.Definition)
	default:
		return fmt.Sprintf("CONSTRAINT %s %s (%s)", con.Name, con.Type, strings.Join(con.Columns, ", "))
	}
}

func generateCreateIndex(table string, idx SchemaIndex) string {
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);", unique, idx.Name, table, strings.Join(idx.Columns, ", "))
}

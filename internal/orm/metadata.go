package orm

import (
	"fmt"
	"reflect"

	"github.com/eleven-am/recipe-api/internal/schema"
)

// ColumnMetadata describes how one struct field maps to a column
type ColumnMetadata struct {
	FieldName    string
	DBName       string
	GoType       string
	FieldIndex   []int
	IsPrimaryKey bool
	IsGenerated  bool // identity columns are filled in by the database
}

// ModelMetadata holds the table mapping of a model
type ModelMetadata struct {
	TableName   string
	StructName  string
	PrimaryKeys []string
	Columns     map[string]*ColumnMetadata // keyed by field name
	ColumnOrder []string                   // db names in struct order
}

// MetadataFor derives metadata for T from its db and dbdef struct tags
func MetadataFor[T any]() (*ModelMetadata, error) {
	var zero T
	def, err := schema.NewStructParser().ParseType(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	return NewModelMetadata(def), nil
}

// MustMetadataFor is MetadataFor for package level model declarations
func MustMetadataFor[T any]() *ModelMetadata {
	m, err := MetadataFor[T]()
	if err != nil {
		panic(err)
	}
	return m
}

// NewModelMetadata converts a parsed table definition
func NewModelMetadata(def schema.TableDefinition) *ModelMetadata {
	m := &ModelMetadata{
		TableName:   def.TableName,
		StructName:  def.StructName,
		PrimaryKeys: def.PrimaryKeys(),
		Columns:     make(map[string]*ColumnMetadata, len(def.Fields)),
	}

	for _, f := range def.Fields {
		_, identity := f.DBDef["identity"]
		_, autoInc := f.DBDef["auto_increment"]
		_, pk := f.DBDef["primary_key"]

		m.Columns[f.Name] = &ColumnMetadata{
			FieldName:    f.Name,
			DBName:       f.DBName,
			GoType:       f.Type,
			FieldIndex:   f.Index,
			IsPrimaryKey: pk,
			IsGenerated:  identity || autoInc,
		}
		m.ColumnOrder = append(m.ColumnOrder, f.DBName)
	}

	return m
}

func (m *ModelMetadata) validate() error {
	if m == nil {
		return fmt.Errorf("metadata is required")
	}
	if m.TableName == "" {
		return fmt.Errorf("metadata has no table name")
	}
	if len(m.PrimaryKeys) == 0 {
		return ErrNoPrimaryKey
	}
	if len(m.ColumnOrder) == 0 {
		for _, col := range m.Columns {
			m.ColumnOrder = append(m.ColumnOrder, col.DBName)
		}
	}
	return nil
}

// column returns the metadata for a db column name
func (m *ModelMetadata) column(dbName string) *ColumnMetadata {
	for _, col := range m.Columns {
		if col.DBName == dbName {
			return col
		}
	}
	return nil
}

// fieldValue reads the value of a column from a record
func (m *ModelMetadata) fieldValue(record reflect.Value, col *ColumnMetadata) (interface{}, error) {
	for record.Kind() == reflect.Ptr {
		record = record.Elem()
	}
	if len(col.FieldIndex) > 0 {
		return record.FieldByIndex(col.FieldIndex).Interface(), nil
	}
	field := record.FieldByName(col.FieldName)
	if !field.IsValid() {
		return nil, fmt.Errorf("field %s not found on %s", col.FieldName, record.Type())
	}
	return field.Interface(), nil
}

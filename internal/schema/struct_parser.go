package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// FieldDefinition represents a struct field with database metadata
type FieldDefinition struct {
	Name      string
	DBName    string
	Type      string
	IsPointer bool
	DBDef     map[string]string
	DBTag     string
	DBDefTag  string
	Index     []int
}

// TableDefinition represents a complete table structure
type TableDefinition struct {
	StructName string
	TableName  string
	Fields     []FieldDefinition
	TableLevel map[string]string
}

// PrimaryKeys returns the column names flagged primary_key, in field order
func (t TableDefinition) PrimaryKeys() []string {
	var keys []string
	for _, f := range t.Fields {
		if _, ok := f.DBDef["primary_key"]; ok {
			keys = append(keys, f.DBName)
		}
	}
	return keys
}

// StructParser reads table definitions from model structs.
// Table level attributes live on a blank field: _ struct{} `dbdef:"table:users"`.
type StructParser struct {
	tagParser *TagParser
}

func NewStructParser() *StructParser {
	return &StructParser{tagParser: NewTagParser()}
}

// ParseModels parses every model, stopping at the first invalid one
func (p *StructParser) ParseModels(models ...interface{}) ([]TableDefinition, error) {
	tables := make([]TableDefinition, 0, len(models))
	for _, m := range models {
		def, err := p.ParseModel(m)
		if err != nil {
			return nil, err
		}
		tables = append(tables, def)
	}
	return tables, nil
}

// ParseModel parses a single model value or pointer
func (p *StructParser) ParseModel(model interface{}) (TableDefinition, error) {
	t := reflect.TypeOf(model)
	if t == nil {
		return TableDefinition{}, fmt.Errorf("model must not be nil")
	}
	return p.ParseType(t)
}

// ParseType parses a struct type
func (p *StructParser) ParseType(t reflect.Type) (TableDefinition, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return TableDefinition{}, fmt.Errorf("model %s is not a struct", t)
	}

	def := TableDefinition{
		StructName: t.Name(),
		TableLevel: make(map[string]string),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Name == "_" {
			def.TableLevel = p.tagParser.ParseDBDefTag(field.Tag.Get("dbdef"))
			continue
		}

		if !field.IsExported() {
			continue
		}

		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}

		dbDefTag := field.Tag.Get("dbdef")
		if err := p.tagParser.ValidateDBDefTag(dbDefTag); err != nil {
			return TableDefinition{}, fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
		}

		def.Fields = append(def.Fields, FieldDefinition{
			Name:      field.Name,
			DBName:    strings.Split(dbTag, ",")[0],
			Type:      field.Type.String(),
			IsPointer: field.Type.Kind() == reflect.Ptr,
			DBDef:     p.tagParser.ParseDBDefTag(dbDefTag),
			DBTag:     dbTag,
			DBDefTag:  dbDefTag,
			Index:     field.Index,
		})
	}

	if len(def.Fields) == 0 {
		return TableDefinition{}, fmt.Errorf("model %s has no db columns", t.Name())
	}

	if name, ok := def.TableLevel["table"]; ok && name != "" {
		def.TableName = name
	} else {
		def.TableName = toSnakeCase(t.Name()) + "s"
	}

	return def, nil
}

func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

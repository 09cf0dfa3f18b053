package schema

import (
	"fmt"
	"strings"
)

// TagParser handles parsing of dbdef struct tags
type TagParser struct{}

// NewTagParser creates a new tag parser instance
func NewTagParser() *TagParser {
	return &TagParser{}
}

// ParseDBDefTag parses a dbdef tag string into a map of attributes
// Format: "type:bigint;primary_key;identity;not_null"
// Returns: map[string]string{"type": "bigint", "primary_key": "", "identity": "", "not_null": ""}
// Repeated keys are joined with ";" so several table level indexes can share one tag.
func (p *TagParser) ParseDBDefTag(tagValue string) map[string]string {
	attributes := make(map[string]string)

	if tagValue == "" {
		return attributes
	}

	for _, part := range strings.Split(tagValue, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, ":") {
			kv := strings.SplitN(part, ":", 2)
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])

			if existing, exists := attributes[key]; exists {
				attributes[key] = existing + ";" + value
			} else {
				attributes[key] = value
			}
		} else {
			attributes[part] = ""
		}
	}

	return attributes
}

// ValidateDBDefTag validates a column level dbdef tag
func (p *TagParser) ValidateDBDefTag(tagValue string) error {
	if tagValue == "" {
		return nil
	}

	for key, value := range p.ParseDBDefTag(tagValue) {
		switch key {
		case "type":
			if err := p.validateType(value); err != nil {
				return fmt.Errorf("invalid type '%s': %w", value, err)
			}
		case "default":
			if value == "" {
				return fmt.Errorf("default value cannot be empty")
			}
		case "fk", "foreign_key":
			if err := p.validateForeignKey(value); err != nil {
				return fmt.Errorf("invalid foreign key '%s': %w", value, err)
			}
		case "check":
			if value == "" {
				return fmt.Errorf("check constraint cannot be empty")
			}
		case "primary_key", "not_null", "unique", "auto_increment", "identity":
			if value != "" {
				return fmt.Errorf("flag attribute '%s' should not have a value", key)
			}
		case "on_delete", "on_update":
			if err := p.validateOnDeleteUpdate(value); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", key, value, err)
			}
		default:
			return fmt.Errorf("unknown dbdef attribute '%s'", key)
		}
	}

	return nil
}

// validateType validates PostgreSQL column types
func (p *TagParser) validateType(typeValue string) error {
	if typeValue == "" {
		return fmt.Errorf("type cannot be empty")
	}

	validTypes := map[string]bool{
		"smallint": true, "integer": true, "bigint": true,
		"smallserial": true, "serial": true, "bigserial": true,
		"decimal": true, "numeric": true, "real": true, "double precision": true,
		"char": true, "varchar": true, "text": true,
		"timestamp": true, "timestamptz": true, "date": true,
		"boolean": true, "bool": true,
		"uuid": true, "jsonb": true,
	}

	baseType := typeValue
	if idx := strings.Index(typeValue, "("); idx != -1 {
		baseType = typeValue[:idx]
	}

	if !validTypes[strings.ToLower(strings.TrimSpace(baseType))] {
		return fmt.Errorf("unknown PostgreSQL type: %s", typeValue)
	}

	return nil
}

// validateForeignKey validates foreign key references
func (p *TagParser) validateForeignKey(fkValue string) error {
	parts := strings.Split(fkValue, ".")
	if len(parts) != 2 {
		return fmt.Errorf("foreign key must be in format 'table.column', got: %s", fkValue)
	}

	if strings.TrimSpace(parts[0]) == "" {
		return fmt.Errorf("table name cannot be empty in foreign key reference")
	}
	if strings.TrimSpace(parts[1]) == "" {
		return fmt.Errorf("column name cannot be empty in foreign key reference")
	}

	return nil
}

// validateOnDeleteUpdate validates ON DELETE/UPDATE actions
func (p *TagParser) validateOnDeleteUpdate(action string) error {
	switch strings.ToUpper(action) {
	case "CASCADE", "SET NULL", "SET DEFAULT", "RESTRICT", "NO ACTION":
		return nil
	}
	return fmt.Errorf("must be one of: CASCADE, SET NULL, SET DEFAULT, RESTRICT, NO ACTION")
}

// GetType extracts the PostgreSQL type from dbdef attributes
func (p *TagParser) GetType(attributes map[string]string) string {
	return attributes["type"]
}

// HasFlag checks if a flag attribute is present
func (p *TagParser) HasFlag(attributes map[string]string, flag string) bool {
	_, exists := attributes[flag]
	return exists
}

// GetDefault extracts the default value from dbdef attributes
func (p *TagParser) GetDefault(attributes map[string]string) string {
	return attributes["default"]
}

// GetForeignKey extracts the foreign key reference from dbdef attributes
func (p *TagParser) GetForeignKey(attributes map[string]string) string {
	if fkVal, exists := attributes["foreign_key"]; exists {
		return fkVal
	}
	return attributes["fk"]
}

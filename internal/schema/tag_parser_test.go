package schema

import (
	"reflect"
	"testing"
)

func TestTagParser_ParseDBDefTag(t *testing.T) {
	parser := NewTagParser()

	tests := []struct {
		name     string
		tag      string
		expected map[string]string
	}{
		{
			name:     "empty",
			tag:      "",
			expected: map[string]string{},
		},
		{
			name: "identity primary key",
			tag:  "type:bigint;primary_key;identity",
			expected: map[string]string{
				"type":        "bigint",
				"primary_key": "",
				"identity":    "",
			},
		},
		{
			name: "foreign key",
			tag:  "type:bigint;not_null;foreign_key:users.id;on_delete:CASCADE",
			expected: map[string]string{
				"type":        "bigint",
				"not_null":    "",
				"foreign_key": "users.id",
				"on_delete":   "CASCADE",
			},
		},
		{
			name: "check keeps operators",
			tag:  "type:numeric(5,2);check:price >= 0",
			expected: map[string]string{
				"type":  "numeric(5,2)",
				"check": "price >= 0",
			},
		},
		{
			name: "repeated table level index",
			tag:  "table:recipes;index:idx_a,user_id;index:idx_b,title",
			expected: map[string]string{
				"table": "recipes",
				"index": "idx_a,user_id;idx_b,title",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.ParseDBDefTag(tt.tag)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseDBDefTag(%q) = %v, want %v", tt.tag, result, tt.expected)
			}
		})
	}
}

func TestTagParser_ValidateDBDefTag(t *testing.T) {
	parser := NewTagParser()

	tests := []struct {
		name    string
		tag     string
		wantErr bool
	}{
		{"valid varchar", "type:varchar(255);not_null;unique", false},
		{"valid numeric", "type:numeric(5,2);not_null;check:price >= 0", false},
		{"valid fk", "type:bigint;foreign_key:users.id;on_delete:cascade", false},
		{"unknown type", "type:money", true},
		{"empty default", "default:", true},
		{"bad fk", "type:bigint;fk:users", true},
		{"flag with value", "not_null:yes", true},
		{"bad on_delete", "fk:users.id;on_delete:EXPLODE", true},
		{"unknown attribute", "type:text;colour:blue", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parser.ValidateDBDefTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDBDefTag(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
		})
	}
}

func TestTagParser_Accessors(t *testing.T) {
	parser := NewTagParser()
	attrs := parser.ParseDBDefTag("type:text;default:'';fk:users.id;not_null")

	if got := parser.GetType(attrs); got != "text" {
		t.Errorf("GetType() = %q", got)
	}
	if got := parser.GetDefault(attrs); got != "''" {
		t.Errorf("GetDefault() = %q", got)
	}
	if got := parser.GetForeignKey(attrs); got != "users.id" {
		t.Errorf("GetForeignKey() = %q", got)
	}
	if !parser.HasFlag(attrs, "not_null") || parser.HasFlag(attrs, "unique") {
		t.Errorf("HasFlag() mismatch for %v", attrs)
	}
}

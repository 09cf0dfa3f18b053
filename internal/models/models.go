// Package models declares the persisted entities. The db tags drive row
// mapping and the dbdef tags drive the generated schema.
package models

// All lists every model in creation order
func All() []interface{} {
	return []interface{}{User{}, Recipe{}, Token{}}
}

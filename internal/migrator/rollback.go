package migrator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	createTableRe = regexp.MustCompile(`(?i)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)`)
	createIndexRe = regexp.MustCompile(`(?i)^CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?([^\s]+)`)
	alterTableRe  = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+([^\s]+)`)
	addColumnRe   = regexp.MustCompile(`(?i)ADD\s+COLUMN\s+([^\s]+)`)
	addConstrRe   = regexp.MustCompile(`(?i)ADD\s+CONSTRAINT\s+([^\s]+)`)
	renameColRe   = regexp.MustCompile(`(?i)RENAME\s+COLUMN\s+([^\s]+)\s+TO\s+([^\s]+)`)
)

// ReverseStatement returns SQL undoing stmt. Statements that lose data when
// reversed, or that cannot be reversed, come back as a comment.
func ReverseStatement(stmt string) string {
	sql := strings.TrimSpace(stmt)

	if m := createTableRe.FindStringSubmatch(sql); m != nil {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", m[1])
	}
	if m := createIndexRe.FindStringSubmatch(sql); m != nil {
		return fmt.Sprintf("DROP INDEX IF EXISTS %s", m[1])
	}

	if m := alterTableRe.FindStringSubmatch(sql); m != nil {
		table := m[1]
		upper := strings.ToUpper(sql)
		switch {
		case !strings.Contains(upper, ","):
			if c := addColumnRe.FindStringSubmatch(sql); c != nil {
				return fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", table, c[1])
			}
			if c := addConstrRe.FindStringSubmatch(sql); c != nil {
				return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", table, c[1])
			}
			if c := renameColRe.FindStringSubmatch(sql); c != nil {
				return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, c[2], c[1])
			}
		}
	}

	return "-- irreversible: " + strings.Join(strings.Fields(sql), " ")
}

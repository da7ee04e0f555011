package persist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chronicle-rp/server/internal/charvar"
)

// restoreQuery builds the character restore SELECT from the sealed registry.
// Columns are the persisted var fields plus the row identifier; every var
// declaring an allow-list contributes a strict `field = ANY($n)` predicate so
// out-of-list rows never reach the decoder. specificID of zero selects the
// owner's whole roster.
func restoreQuery(reg *charvar.Registry, schema, owner string, specificID int32) (string, []any) {
	cols := []string{"id"}
	for _, v := range reg.Persisted() {
		cols = append(cols, v.Field)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM characters WHERE schema = $1 AND steamid = $2",
		strings.Join(cols, ", "))
	args := []any{schema, owner}

	for _, v := range reg.Ordered() {
		if v.Field == "" || v.FilterValues == nil {
			continue
		}
		args = append(args, v.FilterValues())
		fmt.Fprintf(&b, " AND %s = ANY($%d)", v.Field, len(args))
	}

	if specificID != 0 {
		args = append(args, specificID)
		fmt.Fprintf(&b, " AND id = $%d", len(args))
	}

	b.WriteString(" ORDER BY id")
	return b.String(), args
}

// insertQuery builds the creation INSERT. Field columns come from the caller
// in sorted order so the statement text is deterministic; schema and the
// timestamps are stamped server-side.
func insertQuery(schema string, fields map[string]any) (string, []any) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := []any{schema}
	places := []string{"$1"}
	for _, col := range cols {
		args = append(args, fields[col])
		places = append(places, fmt.Sprintf("$%d", len(args)))
	}

	sql := fmt.Sprintf(
		"INSERT INTO characters (schema, %s, created_at, last_join_at) VALUES (%s, NOW(), NOW()) RETURNING id",
		strings.Join(cols, ", "),
		strings.Join(places, ", "),
	)
	return sql, args
}

// updateQuery builds the periodic save UPDATE over the given columns.
func updateQuery(id int32, fields map[string]any) (string, []any) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := []any{id}
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		args = append(args, fields[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	sql := fmt.Sprintf("UPDATE characters SET %s WHERE id = $1", strings.Join(sets, ", "))
	return sql, args
}

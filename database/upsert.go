package database

import (
	"fmt"
	"strings"
)

// UpsertTable describes how rows staged in a temporary table are merged into
// their final table.  Columns updated on conflict are restricted to the ones
// set on the incoming rows; for every such column the incoming value wins
// unless it is null.
type UpsertTable struct {
	Name       string
	PrimaryKey []string
	// Columns of the final table, in the order rows are copied
	Columns []string
	// Insert overrides the select expression of a column when the row is
	// first inserted.  Expressions may refer to the staged row as "tmp"
	Insert map[string]string
	// Update overrides the update expression of a column on conflict.
	// Expressions may refer to the persisted row as "t" and the staged row
	// as "excluded"
	Update map[string]string
	// Joins added after the temporary table in the insert select
	Joins string
}

// TempName is the name of the staging table
func (u *UpsertTable) TempName() string {
	return u.Name + "_temp"
}

// CreateTempQuery creates the staging table, without the not null
// constraints of the final table, dropped when the transaction ends
func (u *UpsertTable) CreateTempQuery() string {
	return fmt.Sprintf(
		"create temporary table if not exists %s on commit drop as table %s limit 0",
		u.TempName(), u.Name,
	)
}

// TruncateTempQuery empties the staging table
func (u *UpsertTable) TruncateTempQuery() string {
	return fmt.Sprintf("truncate table %s", u.TempName())
}

func (u *UpsertTable) isPrimaryKey(column string) bool {
	for _, pk := range u.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}

// Query returns the statement merging the staging table into the final
// table, updating only changed columns on conflict.  When no non key column
// changed, conflicting rows are left untouched.
func (u *UpsertTable) Query(changed []string) string {
	selects := make([]string, len(u.Columns))
	for i, column := range u.Columns {
		if expr, ok := u.Insert[column]; ok {
			selects[i] = expr
		} else {
			selects[i] = "tmp." + column
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "insert into %s as t (%s) select %s from %s tmp",
		u.Name, strings.Join(u.Columns, ", "), strings.Join(selects, ", "), u.TempName())
	if u.Joins != "" {
		b.WriteString(" ")
		b.WriteString(u.Joins)
	}
	fmt.Fprintf(&b, " on conflict (%s) do ", strings.Join(u.PrimaryKey, ", "))

	updates := make([]string, 0, len(changed))
	for _, column := range changed {
		if u.isPrimaryKey(column) {
			continue
		}
		expr, ok := u.Update[column]
		if !ok {
			expr = fmt.Sprintf("coalesce(excluded.%s, t.%s)", column, column)
		}
		updates = append(updates, fmt.Sprintf("%s = %s", column, expr))
	}
	if len(updates) == 0 {
		b.WriteString("nothing")
		return b.String()
	}
	b.WriteString("update set ")
	b.WriteString(strings.Join(updates, ", "))
	return b.String()
}

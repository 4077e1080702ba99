package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    int64   `meddler:"id"`
	Name  *string `meddler:"name"`
	Data  []byte  `meddler:"data"`
	Count *int64  `meddler:"count"`
	Kind  string  `meddler:"kind"`
	Num   int64   `meddler:"num"`
	Skip  bool    `meddler:"-"`
}

func TestNonNullColumns(t *testing.T) {
	name := "foo"
	count := int64(0)
	rows := []row{
		{ID: 1, Name: &name},
		{ID: 2, Count: &count},
	}
	columns, err := NonNullColumns(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "count"}, columns)

	columns, err = NonNullColumns([]row{})
	require.NoError(t, err)
	assert.Empty(t, columns)

	_, err = NonNullColumns(row{})
	assert.Error(t, err)

	// zero plain values are unset, pointers to zero are not
	columns, err = NonNullColumns([]row{{ID: 3}, {ID: 4, Count: &count}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "count"}, columns)

	columns, err = NonNullColumns([]row{{ID: 5, Kind: "ACCOUNT"}, {ID: 6, Num: 6}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "kind", "num"}, columns)
}

func TestSlicePtrsToSlice(t *testing.T) {
	rows := []*row{{ID: 1}, {ID: 2}}
	res := SlicePtrsToSlice(rows).([]row)
	assert.Equal(t, []row{{ID: 1}, {ID: 2}}, res)
}

func TestUpsertQuery(t *testing.T) {
	table := UpsertTable{
		Name:       "schedule",
		PrimaryKey: []string{"schedule_id"},
		Columns:    []string{"schedule_id", "consensus_timestamp", "executed_timestamp"},
	}
	assert.Equal(t, "schedule_temp", table.TempName())
	assert.Equal(t,
		"create temporary table if not exists schedule_temp on commit drop as table schedule limit 0",
		table.CreateTempQuery())
	assert.Equal(t,
		"insert into schedule as t (schedule_id, consensus_timestamp, executed_timestamp) "+
			"select tmp.schedule_id, tmp.consensus_timestamp, tmp.executed_timestamp from schedule_temp tmp "+
			"on conflict (schedule_id) do update set executed_timestamp = "+
			"coalesce(excluded.executed_timestamp, t.executed_timestamp)",
		table.Query([]string{"schedule_id", "executed_timestamp"}))

	// Only key columns changed
	assert.Equal(t,
		"insert into schedule as t (schedule_id, consensus_timestamp, executed_timestamp) "+
			"select tmp.schedule_id, tmp.consensus_timestamp, tmp.executed_timestamp from schedule_temp tmp "+
			"on conflict (schedule_id) do nothing",
		table.Query([]string{"schedule_id"}))
}

func TestUpsertQueryOverrides(t *testing.T) {
	table := UpsertTable{
		Name:       "token",
		PrimaryKey: []string{"token_id"},
		Columns:    []string{"token_id", "created_timestamp", "total_supply"},
		Insert: map[string]string{
			"total_supply": "abs(tmp.total_supply)",
		},
		Update: map[string]string{
			"created_timestamp": "coalesce(t.created_timestamp, excluded.created_timestamp)",
		},
		Joins: "left join entity e on e.id = tmp.token_id",
	}
	q := table.Query([]string{"token_id", "created_timestamp", "total_supply"})
	assert.Equal(t,
		"insert into token as t (token_id, created_timestamp, total_supply) "+
			"select tmp.token_id, tmp.created_timestamp, abs(tmp.total_supply) from token_temp tmp "+
			"left join entity e on e.id = tmp.token_id "+
			"on conflict (token_id) do update set "+
			"created_timestamp = coalesce(t.created_timestamp, excluded.created_timestamp), "+
			"total_supply = coalesce(excluded.total_supply, t.total_supply)",
		q)
}

package artifact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableValidatesColumnLengths(t *testing.T) {
	_, err := NewTable("bad", []string{"a", "b"}, map[string][]any{
		"a": {1.0, 2.0},
		"b": {1.0},
	})
	assert.ErrorContains(t, err, `column "b"`)

	_, err = NewTable("bad", []string{"a"}, map[string][]any{})
	assert.ErrorContains(t, err, "no data")
}

func TestTableNumRows(t *testing.T) {
	table, err := NewTable("t", []string{"a"}, map[string][]any{"a": {1.0, 2.0, 3.0}})
	require.NoError(t, err)
	assert.Equal(t, 3, table.NumRows())

	empty := &Table{}
	assert.Equal(t, 0, empty.NumRows())
}

func TestFloat64Column(t *testing.T) {
	table, err := NewTable("t", []string{"n", "mixed", "s"}, map[string][]any{
		"n":     {1.0, 2, int64(3), float32(4), json.Number("5")},
		"mixed": {1.0, "two", 3.0, 4.0, 5.0},
		"s":     {"a", "b", "c", "d", "e"},
	})
	require.NoError(t, err)

	values, ok := table.Float64Column("n")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, values)

	_, ok = table.Float64Column("mixed")
	assert.False(t, ok)
	_, ok = table.Float64Column("s")
	assert.False(t, ok)
	_, ok = table.Float64Column("absent")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	table, err := NewTable("t", []string{"v", "label"}, map[string][]any{
		"v":     {2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0},
		"label": {"a", "b", "c", "d", "e", "f", "g", "h"},
	})
	require.NoError(t, err)

	summaries := table.Describe()
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, "v", s.Name)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.138, s.StdDev, 1e-3)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
}

func TestTableJSONRoundTrip(t *testing.T) {
	table, err := NewTable("sales", []string{"x", "y"}, map[string][]any{
		"x": {1.0, 2.0},
		"y": {"a", "b"},
	})
	require.NoError(t, err)

	data, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "sales", decoded.Name)
	assert.Equal(t, []string{"x", "y"}, decoded.Columns)
	assert.Equal(t, 2, decoded.NumRows())
}

func TestSortedNames(t *testing.T) {
	tables := map[string]*Table{
		"zebra":  {},
		"apple":  {},
		"mango":  {},
		"banana": {},
	}
	assert.Equal(t, []string{"apple", "banana", "mango", "zebra"}, SortedNames(tables))
}

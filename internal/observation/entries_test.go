package observation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

func TestBuildDataSetEntries(t *testing.T) {
	tests := []struct {
		name  string
		pairs []observation.KeyValue
		want  []observation.DataSetEntry
	}{
		{
			name: "number and string",
			pairs: []observation.KeyValue{
				{Key: "A", Value: float64(1)},
				{Key: "B", Value: "two"},
			},
			want: []observation.DataSetEntry{
				{Key: "A", Value: "1"},
				{Key: "B", Value: "two"},
			},
		},
		{
			name: "duplicate key keeps first",
			pairs: []observation.KeyValue{
				{Key: "A", Value: "first"},
				{Key: "B", Value: "b"},
				{Key: "A", Value: "second"},
			},
			want: []observation.DataSetEntry{
				{Key: "A", Value: "first"},
				{Key: "B", Value: "b"},
			},
		},
		{
			name:  "nil is a tombstone",
			pairs: []observation.KeyValue{{Key: "gone"}},
			want:  []observation.DataSetEntry{{Key: "gone", Removed: true}},
		},
		{
			name:  "empty",
			pairs: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, observation.BuildDataSetEntries(tt.pairs))
		})
	}
}

func TestDataSetPairs(t *testing.T) {
	pairs := observation.DataSetPairs([]observation.DataSetEntry{
		{Key: "pi", Value: "3.14"},
		{Key: "na", Value: "N/A"},
		{Key: "gone", Removed: true},
	})

	require.Len(t, pairs, 3)
	assert.Equal(t, 3.14, pairs[0].Value)
	assert.Equal(t, "N/A", pairs[1].Value)
	assert.Nil(t, pairs[2].Value)
}

func TestBuildTableEntries(t *testing.T) {
	entries := observation.BuildTableEntries([]observation.TableRow{
		{Key: "T1", Cells: []observation.KeyValue{
			{Key: "length", Value: float64(120)},
			{Key: "length", Value: float64(5)},
			{Key: "name", Value: "drill"},
		}},
		{Key: "T2", Removed: true},
		{Key: "T1", Cells: []observation.KeyValue{{Key: "length", Value: float64(1)}}},
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "T1", entries[0].Key)
	assert.Equal(t, []observation.TableCell{
		{Key: "length", Value: "120"},
		{Key: "name", Value: "drill"},
	}, entries[0].Cells)
	assert.True(t, entries[1].Removed)
	assert.Empty(t, entries[1].Cells)
}

func TestTablePairs_DropsEmptyEntries(t *testing.T) {
	rows := observation.TablePairs([]observation.TableEntry{
		{Key: "empty"},
		{Key: "gone", Removed: true},
		{Key: "full", Cells: []observation.TableCell{{Key: "c", Value: "7"}}},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "gone", rows[0].Key)
	assert.True(t, rows[0].Removed)
	assert.Equal(t, "full", rows[1].Key)
	assert.Equal(t, []observation.KeyValue{{Key: "c", Value: float64(7)}}, rows[1].Cells)
}

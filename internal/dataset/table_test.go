package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dataset-registry/internal/model"
)

func TestTableProject(t *testing.T) {
	t.Parallel()

	t.Run("drops extra columns and reorders", func(t *testing.T) {
		t.Parallel()

		src := Table{
			Columns: []string{"B", "Extra", "A"},
			Rows: [][]string{
				{"b1", "x1", "a1"},
				{"b2", "x2", "a2"},
			},
		}

		got, err := src.Project([]string{"A", "B"})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, got.Columns)
		assert.Equal(t, [][]string{{"a1", "b1"}, {"a2", "b2"}}, got.Rows)
	})

	t.Run("names every missing column", func(t *testing.T) {
		t.Parallel()

		src := Table{Columns: []string{"A"}, Rows: [][]string{{"a1"}}}

		_, err := src.Project([]string{"A", "B", "C"})
		require.ErrorIs(t, err, model.ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "B")
		assert.Contains(t, err.Error(), "C")
	})

	t.Run("pads short rows", func(t *testing.T) {
		t.Parallel()

		src := Table{
			Columns: []string{"A", "B"},
			Rows:    [][]string{{"a1"}},
		}

		got, err := src.Project([]string{"A", "B"})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a1", ""}}, got.Rows)
	})

	t.Run("zero rows project cleanly", func(t *testing.T) {
		t.Parallel()

		src := NewTable([]string{"A", "B"})

		got, err := src.Project([]string{"B", "A"})
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A"}, got.Columns)
		assert.Zero(t, got.RowCount())
	})
}

func TestTableDedup(t *testing.T) {
	t.Parallel()

	t.Run("first occurrence wins", func(t *testing.T) {
		t.Parallel()

		src := Table{
			Columns: []string{"A", "B"},
			Rows: [][]string{
				{"1", "x"},
				{"2", "y"},
				{"1", "x"},
				{"3", "z"},
				{"2", "y"},
			},
		}

		got := src.Dedup()
		assert.Equal(t, [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}}, got.Rows)
	})

	t.Run("field boundaries do not collide", func(t *testing.T) {
		t.Parallel()

		// "ab"+"c" and "a"+"bc" join to the same text but are different rows.
		src := Table{
			Columns: []string{"A", "B"},
			Rows: [][]string{
				{"ab", "c"},
				{"a", "bc"},
			},
		}

		got := src.Dedup()
		assert.Len(t, got.Rows, 2)
	})

	t.Run("empty values still compare", func(t *testing.T) {
		t.Parallel()

		src := Table{
			Columns: []string{"A", "B"},
			Rows: [][]string{
				{"", ""},
				{"", ""},
				{"", "x"},
			},
		}

		got := src.Dedup()
		assert.Equal(t, [][]string{{"", ""}, {"", "x"}}, got.Rows)
	})
}

func TestTableConcat(t *testing.T) {
	t.Parallel()

	left := Table{Columns: []string{"A"}, Rows: [][]string{{"1"}, {"2"}}}
	right := Table{Columns: []string{"A"}, Rows: [][]string{{"3"}}}

	got := left.Concat(right)
	assert.Equal(t, [][]string{{"1"}, {"2"}, {"3"}}, got.Rows)
	// Sources are untouched.
	assert.Len(t, left.Rows, 2)
	assert.Len(t, right.Rows, 1)
}

func TestMissingAndExtraColumns(t *testing.T) {
	t.Parallel()

	tbl := Table{Columns: []string{"A", "X", "B"}}

	assert.Nil(t, tbl.MissingColumns([]string{"A", "B"}))
	assert.Equal(t, []string{"C", "D"}, tbl.MissingColumns([]string{"A", "C", "D"}))
	assert.Equal(t, []string{"X"}, tbl.ExtraColumns([]string{"A", "B"}))
	assert.Nil(t, tbl.ExtraColumns([]string{"A", "X", "B"}))
}

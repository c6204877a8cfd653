package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dataset-registry/internal/model"
)

func TestBuiltinRegistry(t *testing.T) {
	t.Parallel()

	r := Builtin()

	wantTypes := []string{"AI Tutor", "AI Mentor", "AI Impact", "JPT Data", "Unit Performance"}
	require.Equal(t, wantTypes, r.Types())

	wantFiles := map[string]string{
		"AI Tutor":         "ai_tutor_mock_data.csv",
		"AI Mentor":        "ai_mentor_mock_data.csv",
		"AI Impact":        "ai_impact_mock_data.csv",
		"JPT Data":         "jpt_mock_data.csv",
		"Unit Performance": "unit_performance_mock_data.csv",
	}
	wantTemplates := map[string]string{
		"AI Tutor":         "ai_tutor_template.csv",
		"AI Mentor":        "ai_mentor_template.csv",
		"AI Impact":        "ai_impact_template.csv",
		"JPT Data":         "jpt_template.csv",
		"Unit Performance": "unit_performance_template.csv",
	}

	for _, name := range wantTypes {
		def, err := r.Definition(name)
		require.NoError(t, err)
		assert.Equal(t, wantFiles[name], def.DataFile)
		assert.Equal(t, wantTemplates[name], def.TemplateFile)
		assert.NotEmpty(t, def.Columns)
	}

	_, err := r.Definition("Nonexistent")
	require.ErrorIs(t, err, model.ErrUnknownDatasetType)
	assert.False(t, r.Contains("Nonexistent"))
}

func TestRegistryTemplate(t *testing.T) {
	t.Parallel()

	r := Builtin()

	// Every template must have zero rows and columns equal to the schema,
	// order preserved.
	for _, def := range r.Definitions() {
		tmpl, err := r.Template(def.Name)
		require.NoError(t, err)
		assert.Equal(t, def.Columns, tmpl.Columns, def.Name)
		assert.Zero(t, tmpl.RowCount(), def.Name)
	}

	_, err := r.Template("Mystery Data")
	require.ErrorIs(t, err, model.ErrUnknownDatasetType)
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		defs []Definition
	}{
		{
			name: "empty name",
			defs: []Definition{{Name: "", DataFile: "a.csv", TemplateFile: "t.csv", Columns: []string{"A"}}},
		},
		{
			name: "missing data file",
			defs: []Definition{{Name: "X", TemplateFile: "t.csv", Columns: []string{"A"}}},
		},
		{
			name: "no columns",
			defs: []Definition{{Name: "X", DataFile: "a.csv", TemplateFile: "t.csv"}},
		},
		{
			name: "duplicate type",
			defs: []Definition{
				{Name: "X", DataFile: "a.csv", TemplateFile: "t.csv", Columns: []string{"A"}},
				{Name: "X", DataFile: "b.csv", TemplateFile: "u.csv", Columns: []string{"A"}},
			},
		},
		{
			name: "duplicate data file",
			defs: []Definition{
				{Name: "X", DataFile: "a.csv", TemplateFile: "t.csv", Columns: []string{"A"}},
				{Name: "Y", DataFile: "a.csv", TemplateFile: "u.csv", Columns: []string{"A"}},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tc.defs)
			assert.Error(t, err)
		})
	}
}

func TestRegistryCopiesAreIsolated(t *testing.T) {
	t.Parallel()

	r := Builtin()

	types := r.Types()
	types[0] = "mutated"
	assert.Equal(t, "AI Tutor", r.Types()[0])

	def, err := r.Definition("AI Mentor")
	require.NoError(t, err)
	def.Columns[0] = "mutated"

	fresh, err := r.Definition("AI Mentor")
	require.NoError(t, err)
	assert.Equal(t, "Academic_Manager_Name", fresh.Columns[0])
}

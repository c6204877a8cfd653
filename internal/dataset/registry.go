package dataset

import (
	"fmt"

	"go-dataset-registry/internal/model"
)

// Definition binds one dataset type to its backing file, its template entry
// name, and the ordered column schema that defines both the template and the
// validation contract.
type Definition struct {
	Name         string
	DataFile     string
	TemplateFile string
	Columns      []string
}

// Registry owns the fixed mapping from dataset type to Definition. The set
// of registered types is immutable once constructed and the registry is the
// sole authority on type->file and type->schema bindings.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// New builds a registry from definitions, rejecting duplicates and
// definitions without columns or file names.
func New(defs []Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}

	seenFiles := make(map[string]string, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("dataset definition with empty name")
		}
		if def.DataFile == "" || def.TemplateFile == "" {
			return nil, fmt.Errorf("dataset %q: data and template file names are required", def.Name)
		}
		if len(def.Columns) == 0 {
			return nil, fmt.Errorf("dataset %q: schema must declare at least one column", def.Name)
		}
		if _, dup := r.defs[def.Name]; dup {
			return nil, fmt.Errorf("dataset %q registered twice", def.Name)
		}
		if owner, dup := seenFiles[def.DataFile]; dup {
			return nil, fmt.Errorf("data file %q claimed by both %q and %q", def.DataFile, owner, def.Name)
		}

		def.Columns = append([]string(nil), def.Columns...)
		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
		seenFiles[def.DataFile] = def.Name
	}

	return r, nil
}

// Builtin returns the registry of the five tracked dataset types.
func Builtin() *Registry {
	r, err := New(builtinDefinitions)
	if err != nil {
		// The builtin table is a compile-time constant; a bad entry is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return r
}

// Definition returns the definition for name, or ErrUnknownDatasetType.
// The returned columns are a copy; schemas are immutable at runtime.
func (r *Registry) Definition(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", model.ErrUnknownDatasetType, name)
	}
	def.Columns = append([]string(nil), def.Columns...)
	return def, nil
}

// Contains reports whether name is a registered dataset type.
func (r *Registry) Contains(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Types returns the registered type names in declaration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns all definitions in declaration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		def, _ := r.Definition(name)
		out = append(out, def)
	}
	return out
}

// Template returns an empty table whose columns are exactly the schema for
// name, in declared order.
func (r *Registry) Template(name string) (Table, error) {
	def, err := r.Definition(name)
	if err != nil {
		return Table{}, err
	}
	return NewTable(def.Columns), nil
}

var builtinDefinitions = []Definition{
	{
		Name:         "AI Tutor",
		DataFile:     "ai_tutor_mock_data.csv",
		TemplateFile: "ai_tutor_template.csv",
		Columns: []string{
			"Campus", "Course_Name", "Cohort", "Unit_Name", "Faculty", "Email_ID",
			"Unit_Commencement_date", "No_of_Session_IDs_created", "Total_Students_Participated",
			"Batch_size", "Student_adoption_rate", "End_Date", "No_of_students_who_filled_form",
			"Size_of_batch_when_feedback_taken", "Faculty_Avg_Score", "AI_Tutor_quality_score",
			"AI_Tutor_impact_score", "Avg_Rating_for_AI_Tutor_Tool", "Implemented_AI_Tutor",
			"Features_found_useful", "Used_Document_Creator", "Quizzes_conducted",
			"Quizzes_used_for_grading", "Quiz_outcome", "Faculty_Feedback",
		},
	},
	{
		Name:         "AI Mentor",
		DataFile:     "ai_mentor_mock_data.csv",
		TemplateFile: "ai_mentor_template.csv",
		Columns: []string{
			"Academic_Manager_Name", "Program", "Cohort", "Term", "Q1_Improvement_observed",
			"Q2_Students_motivated", "Q3_Effectiveness", "Q4_Key_observations",
		},
	},
	{
		Name:         "AI Impact",
		DataFile:     "ai_impact_mock_data.csv",
		TemplateFile: "ai_impact_template.csv",
		Columns: []string{
			"Student_Name", "Student_mail_id", "Program", "Cohort", "Term",
			"Placed_Not_Placed", "CGPA", "AI_Tutor_Usage", "AI_Mentor_Usage",
			"AI_TKT_Exam_Usage", "JPT_Usage", "Yoodli_Usage",
		},
	},
	{
		Name:         "JPT Data",
		DataFile:     "jpt_mock_data.csv",
		TemplateFile: "jpt_template.csv",
		Columns: []string{
			"Year", "Program", "Cohort", "Company", "Industry_Sector", "Company_Tier",
			"Job_role", "Location", "Students_Eligible", "Applied_Y_N", "Students_Interviewed",
			"Vacancies_Offered", "Students_Selected", "Avg_CTC", "Highest_CTC",
		},
	},
	{
		Name:         "Unit Performance",
		DataFile:     "unit_performance_mock_data.csv",
		TemplateFile: "unit_performance_template.csv",
		Columns: []string{
			"Unit_Name", "CP", "IA", "GA", "TE", "Total_score", "Year", "Program", "Cohort",
		},
	},
}

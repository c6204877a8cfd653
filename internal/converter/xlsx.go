package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"go-dataset-registry/internal/dataset"
)

// Options select the worksheet and where the CSV lands.
type Options struct {
	// OutDir receives the CSV; empty means alongside the source file.
	OutDir string
	// Sheet names the worksheet to read; empty means the workbook's first
	// sheet.
	Sheet string
}

// Result describes one converted workbook.
type Result struct {
	Source string
	Output string
	Sheet  string
	Table  dataset.Table
}

// ConvertFile reads one worksheet of an Excel workbook and writes it next to
// the source (or into opts.OutDir) as CSV. The first spreadsheet row becomes
// the CSV header; ragged rows are padded or truncated to the header width,
// and every cell is carried over as its formatted string value.
func ConvertFile(path string, opts Options) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := strings.TrimSpace(opts.Sheet)
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Result{}, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	} else {
		idx, idxErr := f.GetSheetIndex(sheet)
		if idxErr != nil || idx < 0 {
			return Result{}, fmt.Errorf("sheet %q not found", sheet)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	tbl := rowsToTable(rows)

	output := csvPath(path, opts.OutDir)
	data, err := tbl.CSVBytes()
	if err != nil {
		return Result{}, fmt.Errorf("serialize csv: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return Result{}, fmt.Errorf("write csv: %w", err)
	}

	return Result{Source: path, Output: output, Sheet: sheet, Table: tbl}, nil
}

// rowsToTable treats the first row as the header and squares every data row
// off to the header width. Cells excelize trims from short rows come back as
// empty strings.
func rowsToTable(rows [][]string) dataset.Table {
	if len(rows) == 0 {
		return dataset.Table{}
	}

	t := dataset.NewTable(rows[0])
	width := len(t.Columns)
	t.Rows = make([][]string, 0, len(rows)-1)
	for _, record := range rows[1:] {
		row := make([]string, width)
		copy(row, record)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func csvPath(source string, outDir string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"

	if outDir == "" {
		return filepath.Join(filepath.Dir(source), name)
	}
	return filepath.Join(outDir, name)
}

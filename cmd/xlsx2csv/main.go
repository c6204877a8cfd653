package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go-dataset-registry/internal/converter"
)

var (
	outDir  string
	sheet   string
	preview int
)

var rootCmd = &cobra.Command{
	Use:   "xlsx2csv <workbook.xlsx> [more.xlsx ...]",
	Short: "Convert spreadsheet exports to dataset CSV files",
	Long: `xlsx2csv transcodes Excel workbook exports into the CSV layout the
dataset registry ingests: the first worksheet row becomes the header and
every cell is carried over as its displayed string value.

Missing input files are reported and skipped: the remaining files are still
converted. The command fails only when nothing could be converted at all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&outDir, "out-dir", "o", "",
		"directory for CSV output (default: alongside each workbook)")
	rootCmd.Flags().StringVarP(&sheet, "sheet", "s", "",
		"worksheet to read (default: each workbook's first sheet)")
	rootCmd.Flags().IntVarP(&preview, "preview", "p", 5,
		"data rows to print after each conversion, 0 disables")
	rootCmd.SilenceUsage = true
}

func run(cmd *cobra.Command, args []string) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	converted := 0
	for _, file := range args {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			fmt.Printf("File %s not found\n", file)
			continue
		}

		result, err := converter.ConvertFile(file, converter.Options{OutDir: outDir, Sheet: sheet})
		if err != nil {
			fmt.Printf("Error converting %s: %v\n", file, err)
			continue
		}

		converted++
		printResult(result)
	}

	if converted == 0 {
		return fmt.Errorf("no files were converted")
	}
	return nil
}

func printResult(result converter.Result) {
	fmt.Printf("Converted %s to %s\n", result.Source, result.Output)
	fmt.Printf("Shape: (%d, %d)\n", result.Table.RowCount(), len(result.Table.Columns))
	fmt.Printf("Columns: %s\n", strings.Join(result.Table.Columns, ", "))

	if preview > 0 && result.Table.RowCount() > 0 {
		fmt.Println("First few rows:")
		n := preview
		if n > result.Table.RowCount() {
			n = result.Table.RowCount()
		}
		for _, row := range result.Table.Rows[:n] {
			fmt.Println(strings.Join(row, ", "))
		}
	}

	fmt.Println(strings.Repeat("-", 50))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package tracker records per-episode training data and experiment
// summaries and saves them as CSV files
package tracker

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Row is one episode's training record
type Row struct {
	Episode  int     // Training epoch the episode was collected in
	MakeSpan float64 // Episode's terminal makespan
	Reward   float64 // Episode's undiscounted return
	NoOps    int     // No-op decisions taken in the episode
}

// Results accumulates the per-episode records of one training run
type Results struct {
	rows []Row
}

// NewResults returns a new empty Results
func NewResults() *Results {
	return &Results{}
}

// Add appends one episode's record
func (r *Results) Add(row Row) {
	r.rows = append(r.rows, row)
}

// Len returns the number of recorded episodes
func (r *Results) Len() int {
	return len(r.rows)
}

// Rows returns the recorded episodes in insertion order
func (r *Results) Rows() []Row {
	return r.rows
}

// Save writes the records as a CSV file at path, creating the parent
// directory if needed
func (r *Results) Save(path string) error {
	records := make([][]string, 0, len(r.rows)+1)
	records = append(records, []string{"episode", "make_span", "reward",
		"no-op"})
	for _, row := range r.rows {
		records = append(records, []string{
			strconv.Itoa(row.Episode),
			strconv.FormatFloat(row.MakeSpan, 'f', -1, 64),
			strconv.FormatFloat(row.Reward, 'f', -1, 64),
			strconv.Itoa(row.NoOps),
		})
	}
	return writeCSV(path, records)
}

// Table accumulates string rows under fixed column headers, for
// experiment-level summaries across problem instances
type Table struct {
	header []string
	rows   [][]string
}

// NewTable returns a new empty Table with the given column headers
func NewTable(header ...string) *Table {
	return &Table{header: header}
}

// AddRow appends one row, which must have one cell per column
func (t *Table) AddRow(cells ...string) error {
	if len(cells) != len(t.header) {
		return fmt.Errorf("addrow: illegal row length\n\twant(%v)"+
			"\n\thave(%v)", len(t.header), len(cells))
	}
	t.rows = append(t.rows, cells)
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Save writes the table as a CSV file at path, creating the parent
// directory if needed
func (t *Table) Save(path string) error {
	records := make([][]string, 0, len(t.rows)+1)
	records = append(records, t.header)
	records = append(records, t.rows...)
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: could not create results directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create results file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("save: could not write results: %v", err)
	}
	writer.Flush()
	return writer.Error()
}

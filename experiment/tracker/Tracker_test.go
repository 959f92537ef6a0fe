package tracker

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestResultsSave(t *testing.T) {
	results := NewResults()
	results.Add(Row{Episode: 0, MakeSpan: 55, Reward: 0.75, NoOps: 3})
	results.Add(Row{Episode: 0, MakeSpan: 52.5, Reward: 0.8, NoOps: 1})
	results.Add(Row{Episode: 1, MakeSpan: 50, Reward: 0.85, NoOps: 0})
	require.Equal(t, 3, results.Len())

	path := filepath.Join(t.TempDir(), "results", "ft06_result.csv")
	require.NoError(t, results.Save(path))

	records := readCSV(t, path)
	require.Equal(t, [][]string{
		{"episode", "make_span", "reward", "no-op"},
		{"0", "55", "0.75", "3"},
		{"0", "52.5", "0.8", "1"},
		{"1", "50", "0.85", "0"},
	}, records)
}

func TestTableSave(t *testing.T) {
	table := NewTable("case", "best_make_span")
	require.NoError(t, table.AddRow("ft06", "55"))
	require.NoError(t, table.AddRow("la01", "666"))
	require.Error(t, table.AddRow("too", "many", "cells"))
	require.Equal(t, 2, table.Len())

	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, table.Save(path))

	records := readCSV(t, path)
	require.Equal(t, [][]string{
		{"case", "best_make_span"},
		{"ft06", "55"},
		{"la01", "666"},
	}, records)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pdf2word/backend/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeEntries(cmd *cobra.Command, format string, entries []models.HistoryEntry, empty string) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatJSON:
		return writeJSON(cmd, entries)
	case formatYAML:
		return writeYAML(cmd, entries)
	case "", formatTable:
		printEntries(cmd.OutOrStdout(), entries, empty)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want table, json or yaml)", format)
	}
}

func printEntries(out io.Writer, entries []models.HistoryEntry, empty string) {
	if len(entries) == 0 {
		fmt.Fprintln(out, empty)
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortID(e.ID),
			e.FileName,
			string(e.Status),
			entryDetail(e),
			e.OriginalSize,
			e.ConvertedAt.Local().Format(time.DateTime),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "File", "Status", "Output", "Size", "Converted"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func entryDetail(e models.HistoryEntry) string {
	if e.Status == models.StatusSuccess {
		return e.ConvertedName
	}
	return e.Error
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

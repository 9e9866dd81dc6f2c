// Package report renders analysis results to report files and to the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sensor-anomaly-analyzer/models"
)

// FileName is the report file name for a source: "<source>_report.json".
func FileName(source string) string {
	if source == "" {
		source = "analysis"
	}
	return source + "_report.json"
}

// WriteFile writes result as indented JSON under dir, creating dir if needed, and returns
// the path written.
func WriteFile(dir string, result models.AnalysisResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, FileName(result.Source))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Render prints a human-readable summary followed by one line per anomaly.
func Render(w io.Writer, result models.AnalysisResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Source: %s (%d records, run %s)\n", result.Source, result.RecordCount, result.RunID)
	s := result.Report.Summary
	fmt.Fprintf(&b, "Summary: temperature_drift=%d excessive_vibration=%d voltage_drop=%d\n",
		s.TemperatureDriftCount, s.ExcessiveVibrationCount, s.VoltageDropCount)

	if len(result.Report.Anomalies) == 0 {
		b.WriteString("No anomalies found.\n")
	} else {
		fmt.Fprintf(&b, "Anomalies found: %d\n", len(result.Report.Anomalies))
		for _, a := range result.Report.Anomalies {
			fmt.Fprintf(&b, "  t=%-10g %-20s", a.Timestamp, a.Type)
			if a.Details != "" {
				b.WriteString(" " + a.Details)
			}
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

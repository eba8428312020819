package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/rs/zerolog/log"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		log.Info().Str("file", outputFile).Msg(successMsg)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// newFloatFormatter returns a formatter with fixed precision. Non-finite values print as "-".
func newFloatFormatter(precision int) func(float64) string {
	return func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "-"
		}
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// formatRate renders an improvement rate with an explicit sign and an arrow.
// Colors follow the verdict when enabled.
func formatRate(rate float64, precision int, useColors bool) string {
	var text string
	switch {
	case rate > 0:
		text = fmt.Sprintf("+%.*f%% ▲", precision, rate)
	case rate < 0:
		text = fmt.Sprintf("%.*f%% ▼", precision, rate)
	default:
		text = fmt.Sprintf("%.*f%%", precision, 0.0)
	}
	if !useColors {
		return text
	}
	return verdictColor(schema.VerdictOf(rate)).Sprint(text)
}

// formatVerdict renders a verdict, colored when enabled.
func formatVerdict(v schema.Verdict, useColors bool) string {
	if !useColors {
		return string(v)
	}
	return contract.GetColorLabel(v)
}

// verdictColor picks the console color of a verdict.
func verdictColor(v schema.Verdict) *color.Color {
	switch v {
	case schema.ImprovedVerdict:
		return contract.ImprovedColor
	case schema.RegressedVerdict:
		return contract.RegressedColor
	default:
		return contract.UnchangedColor
	}
}

// targetHeader labels a target column, falling back to "A" or "B".
func targetHeader(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// unitSuffix renders " (unit)" or nothing.
func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " (" + unit + ")"
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kent-id/peerwire"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Statement rejected or query failed
	ExitCommandError = 2 // Command error (bad config, unreachable catalog, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIError is the error structure for JSON output. Code is the SQLSTATE of the failure.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// JSON writes v as one line of JSON.
func (f *OutputFormatter) JSON(v interface{}) error {
	return json.NewEncoder(f.Writer).Encode(v)
}

// Error reports err in the configured format and returns it with ExitFailure.
func (f *OutputFormatter) Error(message string, err error) error {
	if f.Format == "json" {
		_ = f.JSON(map[string]interface{}{
			"status": "error",
			"error":  CLIError{Code: peerwire.WireCode(err), Message: err.Error()},
		})
	} else {
		fmt.Fprintf(f.Writer, "ERROR %s: %v\n", peerwire.WireCode(err), err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// Header writes the column names of schema in text format.
func (f *OutputFormatter) Header(schema *peerwire.Schema) {
	if f.Format == "json" {
		return
	}
	names := make([]string, 0, schema.Len())
	for _, field := range schema.Fields() {
		names = append(names, field.Name)
	}
	fmt.Fprintln(f.Writer, strings.Join(names, "\t"))
}

// Record writes one record: tab separated text, or a JSON object keyed by column name.
func (f *OutputFormatter) Record(record *peerwire.Record) error {
	if f.Format == "json" {
		row := make(map[string]interface{}, len(record.Values))
		for i, v := range record.Values {
			row[record.Schema.Field(i).Name] = v.Text()
		}
		return f.JSON(row)
	}
	cells := make([]string, len(record.Values))
	for i, v := range record.Values {
		if text := v.Text(); text != nil {
			cells[i] = *text
		} else {
			cells[i] = "NULL"
		}
	}
	_, err := fmt.Fprintln(f.Writer, strings.Join(cells, "\t"))
	return err
}

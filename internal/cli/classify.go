package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kent-id/peerwire"
)

// ClassifyResult is the JSON output of the classify command.
type ClassifyResult struct {
	Status      string   `json:"status"`
	Variant     string   `json:"variant"`
	Description string   `json:"description"`
	Peers       []string `json:"peers,omitempty"`
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <sql>",
		Short: "Classify a statement against the peer catalog",
		Long: `Parse a statement and report how it would be routed: peer DDL, a query
against one or more peers, a cursor operation, a rollback, or empty.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			catalog, closer, err := openCatalog(rootOpts.config)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer closer.Close()

			parsed, err := peerwire.NewClassifier(catalog).Parse(cmd.Context(), args[0])
			if err != nil {
				return formatter.Error("classification failed", err)
			}
			return outputClassification(formatter, parsed.Statement)
		},
	}
	return cmd
}

func outputClassification(formatter *OutputFormatter, stmt peerwire.Statement) error {
	description, err := peerwire.Summarize(stmt)
	if err != nil {
		return formatter.Error("classification failed", err)
	}

	result := ClassifyResult{Status: "ok", Description: description}
	switch s := stmt.(type) {
	case *peerwire.PeerDDL:
		result.Variant = "peer_ddl"
	case *peerwire.PeerQuery:
		result.Variant = "peer_query"
		result.Peers = s.Assoc.PeerNames()
	case *peerwire.PeerCursor:
		result.Variant = "peer_cursor"
	case *peerwire.Rollback:
		result.Variant = "rollback"
	case *peerwire.Empty:
		result.Variant = "empty"
	}

	if formatter.Format == "json" {
		return formatter.JSON(result)
	}
	_, err = fmt.Fprintln(formatter.Writer, description)
	return err
}

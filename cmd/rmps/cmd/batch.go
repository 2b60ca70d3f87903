package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process and audit submission batches",
}

// batchRunCmd extracts every document in a batch.
var batchRunCmd = &cobra.Command{
	Use:   "run <batch-id>",
	Short: "Run extraction over all documents in a batch",
	Long: `Run processes every document in the batch with a bounded worker pool.
Failures are recorded per document; the batch is marked failed only when no
document succeeded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batchID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid batch id: %w", err)
		}

		eng, cleanup, err := buildEngine(GetConfig())
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := eng.runner.Run(cmd.Context(), batchID)
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

// batchValidateCmd audits a batch for duplicates and sequence gaps.
var batchValidateCmd = &cobra.Command{
	Use:   "validate <batch-id>",
	Short: "Audit a batch for duplicate and missing sheet numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batchID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid batch id: %w", err)
		}

		eng, cleanup, err := buildEngine(GetConfig())
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := eng.runner.ValidateBatch(cmd.Context(), batchID)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func init() {
	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchValidateCmd)
	rootCmd.AddCommand(batchCmd)
}

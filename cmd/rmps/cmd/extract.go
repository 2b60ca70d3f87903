package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// extractCmd runs the extraction pipeline over a single scan file.
var extractCmd = &cobra.Command{
	Use:   "extract <image-file>",
	Short: "Extract and validate the sheet identifier from one scanned image",
	Long: `Extract runs the full pipeline over one scan: barcode decode with OCR
fallback, grammar parse, reference validation, duplicate check, and the
confidence gate. The outcome is persisted on the referenced document and
printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		documentID, err := uuid.Parse(mustFlagString(cmd, "document-id"))
		if err != nil {
			return fmt.Errorf("invalid --document-id: %w", err)
		}
		examID, err := uuid.Parse(mustFlagString(cmd, "exam-id"))
		if err != nil {
			return fmt.Errorf("invalid --exam-id: %w", err)
		}

		imageBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}

		eng, cleanup, err := buildEngine(GetConfig())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := eng.service.ExtractID(cmd.Context(), imageBytes, documentID, examID)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	extractCmd.Flags().String("document-id", "", "UUID of the document being extracted (required)")
	extractCmd.Flags().String("exam-id", "", "UUID of the exam the document belongs to (required)")
	_ = extractCmd.MarkFlagRequired("document-id")
	_ = extractCmd.MarkFlagRequired("exam-id")
	rootCmd.AddCommand(extractCmd)
}

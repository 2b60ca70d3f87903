package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesyinbaare/rmps-sub002/internal/identifier"
)

// generateCmd produces a canonical sheet ID for the print pipeline.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a canonical 13-character sheet identifier",
	Long: `Generate validates the tuple against the identifier grammar and prints
the canonical sheet ID. One printed score sheet carries up to 25 candidate
rows under a single sheet ID; use --candidates to also print how many sheets
a group needs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schoolCode, _ := cmd.Flags().GetString("school-code")
		subjectCode, _ := cmd.Flags().GetString("subject-code")
		series, _ := cmd.Flags().GetString("series")
		testType, _ := cmd.Flags().GetString("test-type")
		sheetNumber, _ := cmd.Flags().GetInt("sheet-number")
		candidates, _ := cmd.Flags().GetInt("candidates")

		sheetID, err := identifier.Generate(schoolCode, subjectCode, series, testType, sheetNumber)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), sheetID)
		if candidates > 0 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sheets required for %d candidates: %d\n",
				candidates, identifier.SheetCount(candidates))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("school-code", "", "six-character school code (required)")
	generateCmd.Flags().String("subject-code", "", "four-character subject code (required)")
	generateCmd.Flags().String("series", "", "print series (required)")
	generateCmd.Flags().String("test-type", "", `test type: "1" objective, "2" essay (required)`)
	generateCmd.Flags().Int("sheet-number", 0, "sheet number in [1,99] (required)")
	generateCmd.Flags().Int("candidates", 0, "optionally compute how many sheets a candidate group needs")
	_ = generateCmd.MarkFlagRequired("school-code")
	_ = generateCmd.MarkFlagRequired("subject-code")
	_ = generateCmd.MarkFlagRequired("series")
	_ = generateCmd.MarkFlagRequired("test-type")
	_ = generateCmd.MarkFlagRequired("sheet-number")
	rootCmd.AddCommand(generateCmd)
}

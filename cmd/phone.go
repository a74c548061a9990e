package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-cli/internal/validate"
)

var phoneCmd = &cobra.Command{
	Use:   "phone <number>...",
	Short: "Normalize US phone numbers to +1XXXXXXXXXX",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, raw := range args {
			if normalized, ok := validate.NormalizeUSPhone(raw); ok {
				fmt.Fprintf(out, "%s\t%s\n", raw, normalized)
			} else {
				fmt.Fprintf(out, "%s\tinvalid\n", raw)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(phoneCmd)
}

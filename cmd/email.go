package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-cli/internal/crawl"
	"github.com/sells-group/lead-cli/internal/fetcher"
	"github.com/sells-group/lead-cli/internal/validate"
)

var (
	emailMaxPages int
	emailAll      bool
)

var emailCmd = &cobra.Command{
	Use:   "email <website>",
	Short: "Find a contact email on a website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailMaxPages > 0 {
			cfg.Crawl.MaxPages = emailMaxPages
		}
		if err := cfg.Validate("email"); err != nil {
			return err
		}

		ctx := cmd.Context()
		f := fetcher.NewHTTPFetcher(httpOptions(cfg))
		out := cmd.OutOrStdout()

		if emailAll {
			page, err := f.Fetch(ctx, args[0])
			if err != nil {
				return err
			}
			for _, e := range validate.ExtractEmails(page.Body) {
				fmt.Fprintln(out, e)
			}
			return nil
		}

		email, ok := crawl.NewFinder(f, finderOptions(cfg)).FindEmail(ctx, args[0])
		if !ok {
			fmt.Fprintln(out, "no email found")
			return nil
		}
		fmt.Fprintln(out, email)
		return nil
	},
}

func init() {
	emailCmd.Flags().IntVar(&emailMaxPages, "max-pages", 0, "page budget for the crawl (default from config)")
	emailCmd.Flags().BoolVar(&emailAll, "all", false, "list every email on the given page instead of crawling")
	rootCmd.AddCommand(emailCmd)
}

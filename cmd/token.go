package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Scrape an API token from the Tumblr home page",
		Args:  cobra.NoArgs,
		RunE:  tokenRunE,
	}
)

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func tokenRunE(cmd *cobra.Command, args []string) error {
	ctx, cancel := terminationSignalContext()
	defer cancel()

	token, err := singletons.Client.ScrapeAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to scrape api token: %w", err)
	}

	err = singletons.Database.SetAPIToken(token)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [remote-dir]",
	Short: "List files in a remote directory",
	Long: `List the regular files directly inside a remote directory.

Subdirectories, hidden entries and in-progress uploads are not shown.
Without an argument the storage root is listed.

Examples:
  gatehouse-cli list
  gatehouse-cli list reports/2024
  gatehouse-cli list --json docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	remoteDir := ""
	if len(args) > 0 {
		remoteDir = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), remoteDir)
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}

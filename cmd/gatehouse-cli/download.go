package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sagarc03/gatehouse/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <remote-path> [local-path]",
	Short: "Download a file from the server",
	Long: `Download a file from the server.

Without a local path the file is saved under its base name in the
current directory.

Examples:
  gatehouse-cli download reports/2024/q1.pdf
  gatehouse-cli download reports/2024/q1.pdf ./q1.pdf
  gatehouse-cli download --stdout config.json | jq .
  gatehouse-cli download -o ./output.txt docs/readme.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	opts := clientcli.DownloadOptions{RemotePath: args[0]}
	if len(args) > 1 {
		opts.LocalPath = args[1]
	}
	if downloadOutput != "" {
		opts.LocalPath = downloadOutput
	}
	if downloadStdout {
		opts.LocalPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, copyErr := io.Copy(os.Stdout, reader)
		if copyErr != nil {
			return fmt.Errorf("write stdout: %w", copyErr)
		}
		result.Size = written
		// Content owns stdout; only JSON metadata is reported, on stderr.
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}

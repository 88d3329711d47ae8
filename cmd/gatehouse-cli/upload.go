package main

import (
	"os"

	"github.com/sagarc03/gatehouse/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadRecursive bool
	uploadFilename  string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [remote-dir]",
	Short: "Upload files to the server",
	Long: `Upload a file into a remote directory, created if missing.

Existing files are never overwritten; uploading to a taken name fails
with a conflict. With -r, a local directory is walked and its layout is
recreated below the remote directory.

Examples:
  gatehouse-cli upload ./q1.pdf reports/2024
  gatehouse-cli upload --name summary.pdf ./draft.pdf reports
  gatehouse-cli upload -r ./photos media/photos`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadFilename, "name", "n", "", "remote file name (default: local base name)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	opts := clientcli.UploadOptions{
		LocalPath: args[0],
		Filename:  uploadFilename,
		Recursive: uploadRecursive,
	}
	if len(args) > 1 {
		opts.Subdirectory = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{}
	}
	return nil
}

// Package clientcli provides a client library for gatehouse servers.
//
// It supports login, list, download, upload and register, authenticating
// with a bearer token or HTTP Basic credentials. The package includes
// profile-based configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Log in and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, "admin", password); err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:    "./q1.pdf",
//		Subdirectory: "reports/2024",
//	})
//
// # Profile Configuration
//
// Profiles store an endpoint, a username and the last issued token:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Errors
//
// Server failures are returned as *APIError and can be matched with
// errors.Is against ErrNotFound, ErrUnauthorized, ErrConflict and
// ErrInvalidPath.
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli

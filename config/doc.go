// Package config provides configuration loading and validation for gatehouse.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (GATEHOUSE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with GATEHOUSE_ prefix:
//   - server.port → GATEHOUSE_SERVER_PORT
//   - auth.secret → GATEHOUSE_AUTH_SECRET
//   - auth.bootstrap.password → GATEHOUSE_AUTH_BOOTSTRAP_PASSWORD
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: "prod" or "production" switches logs to JSON
//   - Server: port and max_upload_size
//   - Storage: the shared directory root
//   - Database: user store type (sqlite, postgres, memory), DSN, and table names
//   - Auth: token secret and TTL, bcrypt cost, bootstrap user, memory-backend users
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// Durations such as auth.token_ttl accept Go duration strings ("30m", "1h").
package config

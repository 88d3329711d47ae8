// Package gatehouse provides an authenticated gateway to a directory tree.
//
// Clients authenticate with a username and password (HTTP Basic or a login
// form) or with a short-lived HS256 bearer token, and can then download,
// list and upload files below a single storage root. Every client-supplied
// path goes through PathResolver, which decodes it once, normalizes it,
// resolves symbolic links and rejects anything that would land outside the
// root.
//
// # Key Components
//
//   - Gateway: Service combining authentication, path resolution and file storage
//   - Authenticator: Verifies password or bearer credentials against a UserStore
//   - TokenService: Issues and validates signed access tokens
//   - BcryptHasher: Salted, adaptive password hashing
//   - PathResolver: Maps untrusted relative paths to locations under the root
//   - UserStore: Interface for user persistence (in-memory, SQLite, PostgreSQL)
//   - FileStorage: Interface for file operations below the root
//
// # Example Usage
//
//	resolver, err := gatehouse.NewPathResolver("/srv/data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gw, err := gatehouse.NewGateway(users, hasher, tokens, resolver, storage)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := gw.Login(ctx, "alice", "s3cret")
//	file, err := gw.Download(ctx, "reports/2024/q1.pdf")
//
// See the http package for the REST API and the database and userbackend
// packages for UserStore implementations.
package gatehouse

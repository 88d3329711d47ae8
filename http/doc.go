// Package http exposes the gatehouse gateway over HTTP.
//
// # Routes
//
//	POST /token          exchange username/password (form or JSON) for a bearer token
//	GET  /files/{path}   download a file
//	GET  /list[/{path}]  list regular files directly inside a directory
//	POST /upload         multipart upload: subdirectory, filename, file
//	POST /register       create a user (JSON username, password)
//	GET  /users/me       the authenticated identity
//	GET  /healthz        liveness
//
// Everything except /token and /healthz goes through AuthMiddleware, which
// accepts either "Authorization: Bearer <token>" or HTTP Basic credentials.
// All credential failures produce the same 401 response.
//
// # Paths
//
// Download and list paths are taken from the escaped request path and
// handed to the service undecoded, so percent-decoding happens exactly once
// inside the path resolver. Traversal attempts surface as 400 invalid_path.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{MaxUploadSize: 100 << 20}, gateway)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// # Errors
//
// HandleError maps gatehouse sentinel errors to status codes and JSON bodies
// of the form {"error": code, "message": text}.
package http

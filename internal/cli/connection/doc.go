// Package connection provides the authenticated HTTP client for linkhub-cli.
//
//   - http.go: request building, header policy and response parsing
//   - error.go: APIError, the normalized non-success response
//   - form.go: binary and multipart request bodies
//
// The client reads the bearer token from a TokenSource at call time and
// never retries or refreshes credentials.
package connection

// Package service provides the session services for LinkHub.
//
// This package contains:
//
//   - AuthService: login, register, profile fetch and logout; the only
//     writer of the session token
//   - TokenMirror: the durable copy of the token in a storage.KV
//   - Synchronizer: one-shot startup reconciliation of the durable token
//     into the session state
//   - Guard: navigation decisions for private paths
//
// All services share one *state.State. Writes to it happen only through
// AuthService, so the in-memory token and its durable mirror move together.
package service

// Package storage provides the durable token store for LinkHub.
//
// The session core mirrors its bearer token into a KV so the next process
// start can rehydrate the session. Backends:
//
//   - badger.go: embedded Badger database (default)
//   - redis.go: shared redis instance
//   - memory.go: in-process map for tests and throwaway sessions
//   - sealed.go: ChaCha20-Poly1305 wrapper encrypting values at rest
//
// Only the auth service writes the token key; everything else reads.
package storage

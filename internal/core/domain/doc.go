// Package domain defines the core domain models for LinkHub.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Profile: the authenticated user's record and the auth payloads
//   - Notification: transient user-facing messages
//   - Errors: domain-specific error definitions
package domain

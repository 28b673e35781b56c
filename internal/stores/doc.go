// Package stores provides short-lived record stores for security-sensitive
// authentication flows, currently the MFA challenge attempt budget.
//
// # Design
//
// Each store persists a JSON-encoded record with a TTL. Mutation operations
// (Consume, RecordFailure) use WATCH/MULTI optimistic transactions with
// automatic retry on contention when redis backs the store, and a mutex when
// the in-process backend is selected. Records are single-use: consumed or
// deleted on success, and enforce attempt limits to resist brute-force
// attacks.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient
// challenge records. It does NOT generate codes, enforce rate limits, or make
// authentication decisions; those responsibilities belong to the engine flow
// files.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package.
//   - Log or expose plaintext secrets.
package stores

// Package token implements the token codec used by the access-control core:
// HS256 access and challenge JWTs with disjoint signing secrets, plus opaque
// refresh and reset secrets that are only ever persisted as SHA-256 digests.
package token

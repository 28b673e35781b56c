// Package middleware provides net/http guards over the authcore Engine:
// bearer authentication, permission checks, and the refresh cookie helper
// that keeps the opaque refresh secret HttpOnly and path-scoped.
package middleware

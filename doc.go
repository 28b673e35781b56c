// Package authcore is the identity, session, and access-control core of a
// multi-role commerce platform. It authenticates shoppers, sellers, seller
// assistants, sub-administrators, and administrators; maintains rotating
// refresh sessions with family-based reuse detection; brokers TOTP
// multi-factor challenges; resolves per-request authorization scope; and
// rate limits abuse-prone operations.
//
// The package is a library, not a service: construct an Engine through the
// Builder, hand it a gorm database and optionally a redis client, and call
// the engine from your transport layer. The examples directory shows a
// minimal HTTP wiring.
package authcore

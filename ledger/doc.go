// Package ledger persists refresh sessions as an append-mostly rotation
// ledger. Each login opens a family; every rotation appends a successor row
// and retires the presented one in a single conditional update, so a replayed
// secret is detected as reuse rather than racing a legitimate rotation.
package ledger

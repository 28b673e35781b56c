// Package rate enforces fixed-window budgets on abuse-prone actions. Every
// guarded action is limited under several independent keys at once (caller IP
// and normalized identity); redis is the durable backend when a bounded
// readiness probe says it is reachable, otherwise counters degrade to
// process-local memory instead of failing open or closed.
package rate

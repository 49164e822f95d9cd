// Package respect implements the reputation ledger engine.
//
// Respect is an integer accumulated per user. Every change is recorded as an
// immutable RespectEvent with a source key and opaque meta; the running
// balance is a materialized view of the event sum, kept in sync by writing
// both inside one transaction. Per-source daily caps blunt farming, reaction
// awards are weighted by the reactor's own standing, and a scheduled decay
// keeps reputation "alive".
package respect

// Package domain defines the core domain types and interfaces.
//
// This package contains the ledger model types (RespectBalance, RespectEvent),
// shared value types, and cross-cutting interfaces. No implementation code -
// just contracts. Prevents circular imports by keeping interfaces on the
// consumer side.
package domain

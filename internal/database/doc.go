// Package database provides PostgreSQL connectivity and the ledger repository.
//
// Uses pgx for connection pooling. Migrations are idempotent DDL applied at
// startup under an advisory lock. LedgerRepo implements domain.LedgerStore;
// the event insert and balance delta always share one transaction.
package database

// Package sqlstore is the relational store of fp4.
//
// It runs on database/sql with either SQLite (mattn/go-sqlite3, driver
// "sqlite3") or PostgreSQL (pgx stdlib, driver "pgx"). The schema is
// managed by goose migrations embedded per dialect.
//
// Multi-statement operations run in one transaction through WithTx.
// Every driver error leaves the package wrapped as domain.ErrStorage.
package sqlstore

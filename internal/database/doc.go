// Package database provides connection pool management for the Postgres
// warehouse that holds the raw and clean snapshot tables.
package database

// Package postgres implements the store interfaces on PostgreSQL. It owns
// query construction, row scanning, and the translation of driver errors
// into the store package's sentinel errors.
package postgres

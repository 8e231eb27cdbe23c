// Package storage provides the audit storage backends: an in-memory map and
// SQLite through either the cgo or the pure Go driver.
package storage

// Package timeentries provides the local SQLite store for time entries.
// It follows the same sync bookkeeping as package receipts.
package timeentries

// package repositories provides the persistence layer for resolution records.
//
// The resolution log is append-only: every attempt is recorded whether or not
// it produced a match, and rows are never updated or deleted. History queries
// read the log newest-first.
package repositories

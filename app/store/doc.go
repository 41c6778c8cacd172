// Package store provides the job postings store. Postings are kept in memory in insertion order
// and persisted through a Backend on every mutation. Two backends are available: CSV file
// (default, full-file rewrite with atomic rename) and SQLite.
package store

// Package scan implements the check-in pipeline: duplicate check, directory
// lookup, event recording, notification and status reconciliation.
//
// Every step runs once, in order, on the caller's goroutine. Nothing is
// retried and nothing is queued; a scan either completes with one Outcome or
// returns an error.
//
// The service depends only on the interfaces in repository.go. It never
// imports net/http, database/sql or a provider SDK directly.
package scan

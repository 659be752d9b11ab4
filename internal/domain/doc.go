// Package domain holds the value types shared by the scan pipeline: scan
// events, directory rows, notification outcomes, personal-sheet targets and
// the result shape returned to scanner clients.
//
// The package imports nothing from internal/ and carries no I/O. JSON tags
// define the wire shape the HTTP API and the scanner CLI agree on.
package domain

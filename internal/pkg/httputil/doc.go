// Package httputil holds the JSON response and request-decoding helpers the
// API handlers share.
package httputil

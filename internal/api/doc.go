// Package api contains the HTTP handlers for the grading service: request
// decoding and validation, mapping service errors to status codes, and the
// response models returned to clients.
package api

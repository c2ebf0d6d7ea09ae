// Package api contains the HTTP handlers, request/response models and error
// mapping for the task management API. Handlers translate between the wire
// format and the service layer, never reaching into stores directly, and
// always take the caller's identity from the request context set by the auth
// middleware — a client-supplied owner field is never trusted.
package api

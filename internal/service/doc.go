// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the stores
// (defined in internal/store) to fulfill application features.
//
// TaskService is the only component with business rules: it resolves
// categories, writes attachment bytes before any relational row referencing
// them, applies the full-replace patch semantics, and enforces owner scoping
// on every operation. Services receive dependencies through constructor
// injection and translate store-level errors to service-level ones; the API
// layer maps those to HTTP status codes.
package service

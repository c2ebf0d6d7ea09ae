// Package store defines the persistence interfaces of the application.
//
// It contains the contracts implemented by the platform packages (the
// PostgreSQL stores and the attachment file store), the DBTX abstraction that
// lets store code run against either a connection or a transaction, the
// RunInTransaction helper, and the sentinel errors shared by every store
// implementation.
package store

// Package domain defines the core business entities of the task management
// system: the task aggregate (task, subtasks, recurrence, attachments) and
// the globally shared categories, together with their validation rules.
//
// Domain entities carry no persistence or transport concerns; stores and
// handlers depend on this package, never the other way around.
package domain

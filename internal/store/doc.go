// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Two implementations exist:
// internal/platform/postgres for production and internal/platform/memory for
// local development and tests. Both must honor the same ownership scoping and
// the compare-and-set semantics of TaskStore.MarkRunning.
package store

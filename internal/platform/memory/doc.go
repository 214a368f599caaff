// Package memory provides in-process implementations of the store interfaces.
// They back the "memory" database driver for local development and serve as
// fast fakes in service tests. State is lost when the process exits.
package memory

// Package task runs background maintenance over stored tasks. Its Reaper
// finds runs that never finished, usually because the process handling them
// died, and moves them to the error state with an error log entry so the
// task can be run again.
package task

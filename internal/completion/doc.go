// Package completion defines the boundary between task runs and the external
// text-completion service. Backends live under internal/platform.
package completion

// Package ratelimit caps how often a user may start task runs. Counts live in
// Redis sorted sets so every replica of the server shares one window per user.
package ratelimit

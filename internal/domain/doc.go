// Package domain contains the core business entities of agentdesk: users and
// their profiles, tasks with their lifecycle status, and the append-only log
// entries produced by running tasks. It is independent of any storage or
// delivery mechanism.
package domain

// Package api adapts HTTP to the task, account and log services: chi
// handlers decode and validate JSON requests, call a service, and map the
// result or error onto a status code and a JSON body.
package api

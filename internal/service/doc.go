// Package service holds the application services that sit between the HTTP
// handlers and the stores: task lifecycle control, accounts and profiles,
// and the run log journal.
package service

// Package server hosts the panel HTTP API: core routes, the metrics endpoint
// and every extension route under extension.RoutePrefix.
package server

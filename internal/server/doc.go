// Package server exposes the hub over HTTP: WebSocket endpoints for
// viewers and the presenter, a small REST API for driving the deck,
// and the usual health and metrics endpoints. Connection intake is
// guarded by global, per-IP, and dial-rate limits.
package server

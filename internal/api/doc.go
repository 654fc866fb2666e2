// Package api implements the HTTP REST API and WebSocket server for the RF panel.
//
// This package provides:
//   - Read-only catalog endpoints (pages, buttons, tags)
//   - Button press and dry-run resolve endpoints
//   - Power mode get/set/toggle
//   - Dispatch history queries
//   - WebSocket hub for button.pressed, mode.changed and bridge.health events
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API server is a second input surface next to the touch panel. Presses
// without an explicit state enter through the panel session and share its
// mode and debounce; presses with a state go straight to the dispatcher.
// Either way commands reach the radio through the same serialised dispatcher.
//
// # Graceful Degradation
//
// The server runs without MQTT (no bridge health relay) and without a
// history repository (execution endpoints return 503).
package api

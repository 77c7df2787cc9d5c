// Package server exposes the survey agent over HTTP: a REST API for survey
// management and text-mode interviews, a WebSocket route for the real-time
// voice loop, and room-token minting for browser clients.
//
// The server is interchangeable plumbing around the dialogue engine. It owns
// turn serialization (one in-flight turn per session via the session turn
// lock) and the speech round trips; all conversation decisions stay in the
// dialogue package.
package server

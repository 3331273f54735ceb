// Package cli provides the interactive journal command-line client.
//
// It wires configuration, the local SQLite cache, the HTTP API client, and an
// interactive REPL that works offline. Edits made while disconnected queue up
// locally and flow to the server on the next sync; conflicting edits are
// surfaced for the user to resolve.
//
// Key features:
//   - Register / Login / Logout (sessions survive restarts)
//   - Write and edit dated journal entries, locally first
//   - Track goals
//   - Chat with the assistant and request refined output (online only)
//   - Sync with the server, list and resolve conflicts
//   - Attach files via presigned object-storage URLs
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and Root for details.
package cli

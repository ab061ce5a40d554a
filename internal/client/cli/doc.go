// Package cli provides the interactive ExpenseHub command-line client.
//
// It wires configuration, the local store, the remote gateway, the
// connectivity monitor and the sync orchestrator, then runs a REPL over the
// receipt and time entry services. Every command works offline; changes are
// pushed as soon as the server is reachable.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

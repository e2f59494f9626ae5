// Package cli provides the interactive gophdisk command-line client.
//
// It wires configuration, local storage, the REST client and the client
// core (ingest dispatcher, job tracker, share gate, resource manager) behind
// a read-eval-print loop. Typical flow: restore or prompt for a session,
// pick up earlier downloads, start the job tracker and a connectivity
// watcher, then execute user commands until exit.
//
// Torrent and ed2k submissions start server-side fetches, so the REPL asks
// for confirmation before dispatching them.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

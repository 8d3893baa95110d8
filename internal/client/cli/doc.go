// Package cli provides the interactive shopkeeper command-line client.
//
// It wires configuration, local storage, the API transport and the
// services, restores the previous session and then runs a REPL until the
// user exits.
//
// Commands:
//   - register, login, logout, whoami
//   - list, next, prev, search <term>
//   - show <id>, add, edit <id>, delete <id>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or input ends. See runREPL for dispatching.
package cli

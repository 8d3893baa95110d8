// Package credentials persists the session credential in the local
// database. The token is never written in clear text: it is sealed with a
// key derived from the per-install secret file and a salt kept next to it.
package credentials

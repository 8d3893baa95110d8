// Package services holds the client application services: the session
// manager that owns the credential and identity, the product service that
// validates and forwards catalog calls, and the browser that keeps the
// state of the product list screen.
package services

// Package client is the HTTP transport for the shopkeeper API.
//
// # Overview
//
// HTTPClient is the single transport object shared by the session and
// product services. It owns the bearer credential cell: the session service
// sets and clears the token, and every other call carries it implicitly in
// the Authorization header. Login and register are always sent without a
// credential.
//
// The endpoint wrappers (Login, Register, Logout, Me, CreateProduct,
// GetProduct, UpdateProduct, DeleteProduct, ListProducts) translate HTTP
// responses into models values or a *Error.
//
// # Error Handling
//
// Every failure is a *Error whose Kind is one of the sentinels ErrNetwork,
// ErrAuth, ErrValidation, ErrNotFound or ErrServer; match with errors.Is.
// When a request that carried a credential is rejected with 401/403 the
// handler registered with OnUnauthorized receives that credential, so the
// session can be torn down.
//
// # Local Database
//
// InitDatabase opens the local SQLite file and applies the embedded goose
// migrations; it backs credential persistence.
package client

// Package client is the client side of the remote authority contract.
//
// Client describes the operations the sync engine needs: liveness probe,
// batch sync, per-entity CRUD used by immediate pushes, and upload URL
// issuance. HTTPClient implements it over the JSON HTTP API and maps
// transport and status failures onto sentinel errors that callers match
// with errors.Is:
//
//   - ErrUnavailable: the server could not be reached or is overloaded
//   - ErrUnauthorized: the API token is missing, invalid or expired
//   - common.ErrorNotFound: the addressed record does not exist
//   - common.ErrorValidation: the server rejected the payload
//
// The package also bootstraps the local SQLite database (InitDatabase).
package client

// Package common contains shared constants and sentinel errors used across
// ExpenseHub components.
package common

// AuthorizationHeaderName carries the bearer token on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the scheme prefix of the Authorization header value.
const BearerScheme = "Bearer"

// Entity type names as they travel on the wire.
const (
	EntityTypeReceipt   = "receipt"
	EntityTypeTimeEntry = "time-entry"
)

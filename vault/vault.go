// Package vault provides secret sources for sync credentials.
// Secrets are addressed by opaque references stored in the sync
// configuration; values never appear in the configuration itself.
package vault

import "errors"

// ErrSecretNotFound is returned when a reference has no stored value.
var ErrSecretNotFound = errors.New("secret not found")

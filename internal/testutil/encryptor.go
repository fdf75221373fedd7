package testutil

import (
	"fscat/internal/catalog"
	"fscat/internal/encryption"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() catalog.Encryptor {
	return encryption.NewTestEncryptor()
}

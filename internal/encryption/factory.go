package encryption

import (
	"fmt"

	"fscat/internal/catalog"
	"fscat/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil when snapshots are stored unencrypted.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (catalog.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"fscat/internal/catalog"
)

// testMagic marks snapshots written by TestEncryptor.
var testMagic = []byte("FSCATTST")

// TestEncryptor frames data with a fixed header instead of encrypting it.
// Output differs from the input and round-trips without keys, which is all
// snapshot tests need.
type TestEncryptor struct {
	passphrase string
}

var _ catalog.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

// Setup records the passphrase; Unlock then insists on it.
func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testMagic); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (catalog.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, errors.New("wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ catalog.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testMagic) {
		return errors.New("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

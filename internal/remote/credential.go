package remote

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultCredentialPrefix is the prefix issued API keys carry.
const DefaultCredentialPrefix = "sk-"

// ErrInvalidCredential is returned before any network call when the
// credential is empty or malformed.
var ErrInvalidCredential = errors.New("invalid credential")

// ValidateCredential checks presence and shape. The credential value is
// never included in the returned error.
func ValidateCredential(credential string, prefix string) error {
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("%w: credential is empty", ErrInvalidCredential)
	}
	if strings.IndexFunc(credential, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: credential contains whitespace", ErrInvalidCredential)
	}
	if prefix != "" && !strings.HasPrefix(credential, prefix) {
		return fmt.Errorf("%w: credential must start with %q", ErrInvalidCredential, prefix)
	}
	if len(credential) == len(prefix) {
		return fmt.Errorf("%w: credential has no key after the prefix", ErrInvalidCredential)
	}
	return nil
}

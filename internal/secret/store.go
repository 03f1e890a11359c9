package secret

import (
	"fmt"
	"strings"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as database passwords referenced from a job file.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// refSuffix marks an option whose value is the name of a secret.
const refSuffix = "Secret"

// ResolveRefs replaces every "<name>Secret" option with a "<name>" option
// holding the secret it points to. Options already set directly win.
func ResolveRefs(opts map[string]any, store SecretStore) error {
	for key, v := range opts {
		if !strings.HasSuffix(key, refSuffix) || key == refSuffix {
			continue
		}
		target := strings.TrimSuffix(key, refSuffix)
		if s, ok := opts[target].(string); ok && s != "" {
			continue
		}
		ref, ok := v.(string)
		if !ok || ref == "" {
			return fmt.Errorf("secret reference %s must be a non-empty string", key)
		}
		value, err := store.Get(ref)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		if len(value) == 0 {
			return fmt.Errorf("resolve %s: secret %q not found", key, ref)
		}
		opts[target] = string(value)
	}
	return nil
}

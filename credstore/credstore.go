// Package credstore resolves provider API keys by logical name.
//
// The durable backend (OS keyring) is an external collaborator; what lives
// here is the lookup chain the application actually uses: an explicit
// key-file path when configured, otherwise the environment.
package credstore

import (
	"fmt"
	"os"
	"strings"
)

// Store returns the secret registered under a logical name, e.g.
// "openai_api_key". Implementations must never log or persist values.
type Store interface {
	Secret(name string) (string, error)
}

// ErrNotFound reports a missing secret. Kept as a type so callers can
// distinguish absence from backend failures.
type ErrNotFound struct{ Name string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("credstore: no secret named %q", e.Name) }

// EnvStore reads secrets from environment variables: the logical name
// uppercased, e.g. "openai_api_key" -> "OPENAI_API_KEY".
type EnvStore struct{}

func (EnvStore) Secret(name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(strings.ToUpper(name)))
	if v == "" {
		return "", &ErrNotFound{Name: name}
	}
	return v, nil
}

// FileStore reads each secret from a file under Dir named after the logical
// name, the way container secret mounts lay keys out.
type FileStore struct {
	Dir string
}

func (s FileStore) Secret(name string) (string, error) {
	data, err := os.ReadFile(s.Dir + "/" + name)
	if err != nil {
		return "", &ErrNotFound{Name: name}
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", &ErrNotFound{Name: name}
	}
	return v, nil
}

// Chain queries stores in order and returns the first hit.
type Chain []Store

func (c Chain) Secret(name string) (string, error) {
	for _, s := range c {
		if v, err := s.Secret(name); err == nil {
			return v, nil
		}
	}
	return "", &ErrNotFound{Name: name}
}

// Default resolves secrets from an optional secrets directory (the
// WHISPERBRIDGE_SECRETS_DIR env var) and then the environment.
func Default() Store {
	chain := Chain{}
	if dir := strings.TrimSpace(os.Getenv("WHISPERBRIDGE_SECRETS_DIR")); dir != "" {
		chain = append(chain, FileStore{Dir: dir})
	}
	return append(chain, EnvStore{})
}

package ports

import "context"

// SecretSource resolves sensitive configuration values, such as the
// database password, from a secret store at startup. Sources are read
// only; rotation happens out of band in the store itself.
type SecretSource interface {
	// GetSecret retrieves a secret by its path
	GetSecret(ctx context.Context, path string) (*Secret, error)
}

// Secret is a resolved secret value with store metadata
type Secret struct {
	Metadata  map[string]string
	Value     string
	Version   string
	CreatedAt string
}

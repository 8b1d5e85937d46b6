package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// envSource implements SecretSource from environment variables.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type envSource struct {
	logger *zap.Logger
}

// NewEnvSource creates a secret source backed by environment variables
func NewEnvSource(logger *zap.Logger) ports.SecretSource {
	return &envSource{logger: logger}
}

// GetSecret maps a secret path to an environment variable and reads it.
// "settlement-service/database/password" becomes SETTLEMENT_SERVICE_DATABASE_PASSWORD.
func (s *envSource) GetSecret(_ context.Context, path string) (*ports.Secret, error) {
	name := pathToEnvVar(path)

	s.logger.Debug("Reading secret from environment",
		zap.String("path", path),
		zap.String("var", name),
	)

	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}

func pathToEnvVar(path string) string {
	name := strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(path)
	return strings.ToUpper(name)
}

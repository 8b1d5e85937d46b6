package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/marketbridge/settlement-service/internal/adapters/secrets"
	"github.com/marketbridge/settlement-service/internal/config"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// initSecretSource initializes the secret source named by SECRETS_SOURCE.
// Supports:
//   - AWS Secrets Manager: SECRETS_SOURCE=aws, AWS_REGION (plus standard AWS credentials)
//   - HashiCorp Vault: SECRETS_SOURCE=vault, VAULT_ADDR and VAULT_TOKEN
//   - Environment variables (development): SECRETS_SOURCE=env or unset
func initSecretSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretSource, error) {
	switch cfg.Secrets.Source {
	case "aws":
		return initAWSSecretSource(ctx, cfg, logger)
	case "vault":
		return initVaultSecretSource(ctx, cfg, logger)
	case "env", "":
		return secrets.NewEnvSource(logger), nil
	default:
		return nil, fmt.Errorf("unknown secrets source %q", cfg.Secrets.Source)
	}
}

// initAWSSecretSource initializes AWS Secrets Manager
func initAWSSecretSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretSource, error) {
	awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
	awsCfg.Profile = cfg.Secrets.AWSProfile
	awsCfg.Endpoint = cfg.Secrets.AWSEndpoint

	source, err := secrets.NewAWSSecretsManagerSource(ctx, awsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize aws secrets manager: %w", err)
	}

	logger.Info("AWS Secrets Manager initialized",
		zap.String("region", cfg.Secrets.AWSRegion),
	)
	return source, nil
}

// initVaultSecretSource initializes HashiCorp Vault
func initVaultSecretSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretSource, error) {
	if cfg.Secrets.VaultAddress == "" {
		return nil, fmt.Errorf("VAULT_ADDR is required when SECRETS_SOURCE=vault")
	}

	vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
	vaultCfg.Token = cfg.Secrets.VaultToken

	source, err := secrets.NewVaultSource(ctx, vaultCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize vault source: %w", err)
	}

	logger.Info("Vault secret source initialized",
		zap.String("address", cfg.Secrets.VaultAddress),
	)
	return source, nil
}

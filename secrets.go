package goPasswordless

import (
	"context"
	"fmt"
	"os"
)

// EnvSecretSource reads secrets from process environment variables. It is
// the default [SecretSource] when the builder is given none.
type EnvSecretSource struct{}

// Secret returns the environment variable called name. Unset and empty are
// both treated as missing.
func (EnvSecretSource) Secret(_ context.Context, name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("secret %q not set in environment", name)
	}
	return value, nil
}

// StaticSecretSource serves secrets from a fixed map. Intended for tests
// and single-binary setups where the secret arrives by other means.
type StaticSecretSource map[string]string

// Secret returns the mapped value for name.
func (s StaticSecretSource) Secret(_ context.Context, name string) (string, error) {
	value, ok := s[name]
	if !ok || value == "" {
		return "", fmt.Errorf("secret %q not configured", name)
	}
	return value, nil
}

package deploy

import (
	"context"

	"github.com/arthur-debert/sshrelease/pkg/config"
)

// DeployRelease deploys cfg over SSH with default options.
func DeployRelease(ctx context.Context, cfg *config.DeploymentConfig) (*Release, error) {
	return New(Options{Config: cfg}).Deploy(ctx)
}

// RemoveRelease removes the deploy path of cfg over SSH.
func RemoveRelease(ctx context.Context, cfg *config.DeploymentConfig) error {
	return New(Options{Config: cfg}).Remove(ctx)
}

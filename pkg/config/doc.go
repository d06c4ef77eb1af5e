// Package config handles configuration management for sshrelease.
// It loads options from the embedded defaults, a TOML or YAML file, a
// named target section and SSHRELEASE_* environment variables, then
// resolves them into an immutable DeploymentConfig for one run.
package config

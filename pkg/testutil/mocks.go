package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockChannel is a testify mock of transfer.Channel.
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Upload(ctx context.Context, localFile, remoteDir string) error {
	args := m.Called(ctx, localFile, remoteDir)
	return args.Error(0)
}

func (m *MockChannel) Sync(ctx context.Context, localDir, remoteDir string, excludes []string) error {
	args := m.Called(ctx, localDir, remoteDir, excludes)
	return args.Error(0)
}

func (m *MockChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Package testutil provides utilities for testing sshrelease components.
//
// Key components:
//   - FakeRemote: a scripted remote host implementing remote.Connector,
//     recording every command and failing the ones a test asks it to
//   - FakeTransfer: a transfer.Channel recording uploads and syncs
//   - SSHServer: an in-process SSH server with an in-memory SFTP
//     subsystem, for exercising the real SSH and SFTP clients
//
// Usage guidelines:
//   - Pipeline tests use FakeRemote and assert on the command sequence
//   - Only pkg/remote and pkg/transfer tests need SSHServer
//   - All test data should be defined inline, not in external files
package testutil

package sshrelease

import (
	_ "embed"
	"strings"
)

// EnvStyles names a YAML styles file overriding the built-in styles.
const EnvStyles = "SSHRELEASE_STYLES"

// Short messages (one-liners)
const (
	MsgRootShort       = "Deploy releases over SSH with a symlink cutover"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	MsgVersionFormat = "sshrelease version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrNoCommand   = "no command specified"
	MsgErrWriteConfig = "failed to write %s: %w"
	MsgConfigWritten  = "Wrote %s\n"
	MsgConfigExists   = "%s already exists, refusing to overwrite it"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig  = "Config file (default: ./sshrelease.toml, then the XDG config dir)"
	MsgFlagFormat  = "Output format: auto, term, text or json (NO_COLOR forces text)"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)

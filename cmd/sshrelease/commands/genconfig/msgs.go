package genconfig

// Message constants
const (
	MsgShort   = "Print the default configuration"
	MsgLong    = "Output the default configuration, with every key and its default value, to stdout.\n\nWith -w, write it to ./sshrelease.toml instead. An existing file is never overwritten."
	MsgExample = `  sshrelease gen-config       # Output to stdout
  sshrelease gen-config -w    # Write to ./sshrelease.toml`
)

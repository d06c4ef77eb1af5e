package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/sshrelease/cmd/sshrelease"
	"github.com/arthur-debert/sshrelease/internal/version"
)

func main() {
	rootCmd := sshrelease.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "SSHRELEASE",
		Section: "1",
		Source:  "sshrelease " + version.Version,
		Manual:  "sshrelease manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}

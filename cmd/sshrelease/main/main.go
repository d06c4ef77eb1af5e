package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/sshrelease/cmd/sshrelease"
	"github.com/arthur-debert/sshrelease/pkg/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

func main() {
	// Interrupts cancel the running pipeline, which then rolls back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := sshrelease.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if !sshrelease.AlreadyReported(err) {
		registry := styles.Default().Build(lipgloss.NewRenderer(os.Stderr))
		fmt.Fprintln(os.Stderr, registry.Render("Error", fmt.Sprintf("Error: %v", err)))
	}
	stop()
	os.Exit(1)
}

package sshrelease

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/sshrelease/cmd/sshrelease/commands/deploy"
	"github.com/arthur-debert/sshrelease/cmd/sshrelease/commands/genconfig"
	"github.com/arthur-debert/sshrelease/cmd/sshrelease/commands/remove"
	"github.com/arthur-debert/sshrelease/internal/version"
	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	pipeline "github.com/arthur-debert/sshrelease/pkg/deploy"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/arthur-debert/sshrelease/pkg/remote"
	"github.com/arthur-debert/sshrelease/pkg/ui"
	"github.com/arthur-debert/sshrelease/pkg/ui/confirm"
	"github.com/arthur-debert/sshrelease/pkg/ui/report"
	"github.com/arthur-debert/sshrelease/pkg/ui/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// globals holds the persistent flag values shared by every command.
type globals struct {
	verbosity  int
	configFile string
	format     string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "sshrelease",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(g.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			_, err := ui.ParseFormat(g.format)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return stderrors.New(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&g.format, "format", "auto", MsgFlagFormat)

	rootCmd.AddGroup(&cobra.Group{ID: "release", Title: "RELEASES:"})
	rootCmd.AddGroup(&cobra.Group{ID: "config", Title: "CONFIGURATION:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newDeployCmd(g))
	rootCmd.AddCommand(newRemoveCmd(g))
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// loadConfig resolves the configuration for the optional target argument.
func (g *globals) loadConfig(args []string, overrides map[string]interface{}) (*config.DeploymentConfig, error) {
	opts := config.LoadOptions{File: g.configFile, Overrides: overrides}
	if len(args) > 0 {
		opts.Target = args[0]
	}
	return config.LoadAndResolve(opts)
}

// reporter renders progress on w. SSHRELEASE_STYLES names a styles file
// replacing the built-in one.
func (g *globals) reporter(w io.Writer) (*report.Reporter, error) {
	format, _ := ui.ParseFormat(g.format)
	path := os.Getenv(EnvStyles)
	if path == "" {
		return report.New(w, format), nil
	}
	cfg, err := styles.LoadStylesFromFile(path)
	if err != nil {
		return nil, err
	}
	return report.NewWithStyles(w, format, cfg), nil
}

// transcript receives remote output and dry-run lines. It moves to stderr
// when stdout carries JSON.
func (g *globals) transcript(cmd *cobra.Command) io.Writer {
	if format, _ := ui.ParseFormat(g.format); format == ui.FormatJSON {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// pipelineOptions wires the orchestrator to out. A dry run keeps the local
// archive in memory and prints remote commands instead of running them.
func pipelineOptions(cfg *config.DeploymentConfig, out io.Writer, r *report.Reporter, dryRun, stream bool) pipeline.Options {
	fs := afero.NewOsFs()
	var connector remote.Connector = remote.NewSSHConnector(out)
	if dryRun {
		fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fs), afero.NewMemMapFs())
		connector = &remote.DryRunConnector{Output: out}
	}
	return pipeline.Options{
		Config:    cfg,
		Connector: connector,
		Channels:  pipeline.DefaultChannels(fs, out),
		Fs:        fs,
		Reporter:  r,
		Stream:    stream,
	}
}

func newDeployCmd(g *globals) *cobra.Command {
	cmd := deploy.NewCommand()
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		stream, _ := cmd.Flags().GetBool("stream")

		var overrides map[string]interface{}
		if tag != "" {
			overrides = map[string]interface{}{"tag": tag}
		}
		cfg, err := g.loadConfig(args, overrides)
		if err != nil {
			return err
		}

		log.Info().
			Str("host", cfg.Host).
			Str("tag", cfg.ReleaseTag).
			Str("mode", string(cfg.Mode)).
			Bool("dryRun", dryRun).
			Msg("Starting deploy")

		r, err := g.reporter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		opts := pipelineOptions(cfg, g.transcript(cmd), r, dryRun, stream)
		release, err := pipeline.New(opts).Deploy(commandContext(cmd))
		if err != nil {
			r.Failed(err)
			return reportedError{err}
		}

		r.Deployed(release)
		if dryRun {
			r.DryRun()
		}
		return nil
	}
	return cmd
}

func newRemoveCmd(g *globals) *cobra.Command {
	cmd := remove.NewCommand()
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")

		cfg, err := g.loadConfig(args, nil)
		if err != nil {
			return err
		}

		if cfg.AllowRemove && !dryRun && !yes {
			dialog := confirm.NewConsoleDialog(cmd.InOrStdin(), cmd.OutOrStdout())
			ok, err := dialog.Ask(confirm.Request{
				Question: fmt.Sprintf(remove.MsgConfirm, cfg.DeployPath, cfg.Host),
				Items:    []string{cfg.ReleasesFolder, cfg.SharedFolder, cfg.CurrentReleaseLink},
			})
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(errors.ErrPermissionDenied, remove.MsgDeclined)
			}
		}

		r, err := g.reporter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		opts := pipelineOptions(cfg, g.transcript(cmd), r, dryRun, false)
		if err := pipeline.New(opts).Remove(commandContext(cmd)); err != nil {
			r.Failed(err)
			return reportedError{err}
		}

		r.Removed(cfg.DeployPath, cfg.Host)
		if dryRun {
			r.DryRun()
		}
		return nil
	}
	return cmd
}

func newGenConfigCmd() *cobra.Command {
	cmd := genconfig.NewCommand()
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		content := config.GetDefaultConfigContent()

		write, _ := cmd.Flags().GetBool("write")
		if !write {
			_, err := fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		}

		path := config.ConfigFileNames[0]
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			return fmt.Errorf(MsgConfigExists, path)
		}
		if err != nil {
			return fmt.Errorf(MsgErrWriteConfig, path, err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf(MsgErrWriteConfig, path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), MsgConfigWritten, path)
		return nil
	}
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// reportedError marks an error the reporter already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// AlreadyReported tells whether err was printed by a command's reporter.
func AlreadyReported(err error) bool {
	var r reportedError
	return stderrors.As(err, &r)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

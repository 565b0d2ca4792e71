// Command glue-shell is an interactive shell around a glue session.
//
// It creates data sets, edits subsets and watches the hub traffic they
// produce, which makes it a convenient way to explore the linking model or to
// record a trace for glue-trace.
//
// Usage:
//
//	glue-shell [flags]
//
// Configuration is read from $XDG_CONFIG_HOME/glue/config.yaml (or the file
// given with --config) and GLUE_* environment variables; flags override both.
//
// Examples:
//
//	# Start with defaults
//	glue-shell
//
//	# Record a trace of the session
//	glue-shell --trace session.glog
//
//	# Restore the last saved session on start
//	glue-shell --restore
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmagness/glue/cmd/glue-shell/interactive"
	"github.com/cmagness/glue/internal/config"
	"github.com/cmagness/glue/pkg/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		restore bool
	)

	cmd := &cobra.Command{
		Use:          "glue-shell",
		Short:        "Interactive shell for a glue linking session",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/glue/config.yaml)")
	cmd.Flags().BoolVar(&restore, "restore", false, "restore the session file on start")
	cmd.Flags().String("trace", "", "append a hub trace to this .glog file")
	cmd.Flags().Bool("fail-fast", false, "stop a broadcast at the first failing handler")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		if err := bindFlags(v, cmd); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return run(cfg, restore)
	}
	return cmd
}

// bindFlags lets explicitly set flags override file and environment values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"trace.file":    "trace",
		"hub.fail_fast": "fail-fast",
		"logging.level": "log-level",
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func run(cfg *config.Config, restore bool) error {
	rl, err := interactive.NewReadline()
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Logging, rl.Stderr())

	sess, err := session.New(session.Config{
		Logger:       logger,
		FailFast:     cfg.Hub.FailFast,
		TraceFile:    cfg.Trace.File,
		TraceConsole: cfg.Trace.Console,
	})
	if err != nil {
		rl.Close()
		return err
	}
	defer sess.Close()

	sh, err := interactive.New(sess, rl.Stdout(), cfg.Session.StateFile)
	if err != nil {
		rl.Close()
		return err
	}

	if restore {
		if _, err := sh.Exec("restore"); err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh.Run(ctx, rl)
	return nil
}

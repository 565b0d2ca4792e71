package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewRootCmd builds the glue-trace command tree.
func NewRootCmd() *cobra.Command {
	var flags FilterFlags

	root := &cobra.Command{
		Use:   "glue-trace",
		Short: "View and analyze glue hub trace files",
		Long: `glue-trace reads the CBOR trace files written by a glue session with
trace.file configured, and shows every broadcast and registry change the hub
recorded.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.Hub, "hub", "", "Filter by hub ID")
	pf.StringVar(&flags.Kind, "kind", "", "Filter by message kind, including derived kinds (e.g. Subset, DataUpdate)")
	pf.StringVar(&flags.Category, "category", "", "Filter by category (broadcast, registry)")
	pf.StringVar(&flags.SenderID, "sender-id", "", "Filter by exact sender ID")
	pf.StringVar(&flags.Sender, "sender", "", "Filter by sender label glob (e.g. 'Subset *')")
	pf.BoolVar(&flags.Failed, "failed", false, "Only broadcasts with failing handlers")
	pf.StringVar(&flags.TimeStart, "time-start", "", "Events at or after this time (RFC3339)")
	pf.StringVar(&flags.TimeEnd, "time-end", "", "Events before this time (RFC3339)")

	root.AddCommand(
		newViewCmd(&flags),
		newStatsCmd(&flags),
		newExportCmd(&flags),
		newFilterCmd(&flags),
	)
	return root
}

func newViewCmd(flags *FilterFlags) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "view <file.glog>",
		Short: "View trace file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.Filter()
			if err != nil {
				return err
			}
			useColor, err := colorEnabled(color, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return RunView(args[0], ViewOptions{Filter: filter, Color: useColor}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&color, "color", "auto", "Colorize output (auto, always, never)")
	return cmd
}

func newStatsCmd(flags *FilterFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.glog>",
		Short: "Show statistics about the trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.Filter()
			if err != nil {
				return err
			}
			return RunStats(args[0], filter, cmd.OutOrStdout())
		},
	}
}

func newExportCmd(flags *FilterFlags) *cobra.Command {
	var opts ExportOptions

	cmd := &cobra.Command{
		Use:   "export <file.glog>",
		Short: "Export trace file to JSONL or CSV format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.Filter()
			if err != nil {
				return err
			}
			opts.Filter = filter
			return RunExport(args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "jsonl", "Output format (jsonl, csv)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newFilterCmd(flags *FilterFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "filter <file.glog>",
		Short: "Filter trace file and write matching events to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.Filter()
			if err != nil {
				return err
			}
			n, err := RunFilter(args[0], output, filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d events to %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// colorEnabled resolves the --color mode. In auto mode colour is used only
// when w is a terminal.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid color mode: %s (must be auto, always, or never)", mode)
	}
}

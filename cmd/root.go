// Package cmd wires the core passes to stdin/stdout as standalone
// commands, per §6's CLI surface. This layer and IR JSON parsing are
// the "external collaborators" named in §1 — everything underneath is
// the actual middle-end.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/brilgo/brilopt/internal/ioutil"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "brilopt",
	Short: "A middle-end for a JSON three-address IR",
	Long: `brilopt reads a JSON three-address intermediate representation from
standard input, runs one analysis or transformation pass, and writes the
result (or a DOT visualization) to standard output.

Each subcommand is one pass: cfg, dom, ssa, trace.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"also write DOT frames of the pass's graphs to stderr where the pass supports it")
	rootCmd.AddCommand(cfgCmd, domCmd, ssaCmd, traceCmd)
}

// Execute runs the selected subcommand and returns its error, if any.
// main translates a non-nil error into a message on stderr and exit 1.
func Execute() error {
	return rootCmd.Execute()
}

func loggerFor(cmd *cobra.Command) *ioutil.Logger {
	level := ioutil.VerbosityNormal
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = ioutil.VerbosityVerbose
	}
	return ioutil.NewLogger(level)
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/dot"
	"github.com/brilgo/brilopt/internal/ioutil"
	"github.com/brilgo/brilopt/internal/ir"
)

var fineGrain bool

var cfgCmd = &cobra.Command{
	Use:   "cfg",
	Short: "Emit a DOT-format control-flow graph for every function",
	Long: `cfg reads a program from stdin and writes one DOT graph per function
to stdout: basic-block granularity by default, or one node per instruction
with -f.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCFG(os.Stdin, os.Stdout, loggerFor(cmd), fineGrain)
	},
}

func init() {
	cfgCmd.Flags().BoolVarP(&fineGrain, "fine", "f", false, "fine-grain output: one node per instruction")
}

func runCFG(r io.Reader, w io.Writer, logger *ioutil.Logger, fine bool) error {
	prog, err := ir.Decode(r)
	if err != nil {
		return err
	}

	for i, fn := range prog.Functions {
		logger.Progress("building %s graph for %q", grainName(fine), fn.Name)

		var nodes []cfg.FlowNode
		var label func(cfg.FlowNode) string

		if fine {
			g, err := cfg.BuildNodeGraph(&prog.Functions[i], i)
			if err != nil {
				return err
			}
			for _, n := range g.Nodes {
				nodes = append(nodes, n)
			}
			label = func(n cfg.FlowNode) string { return dot.NodeLabel(n.(*cfg.Node)) }
		} else {
			g, err := cfg.BuildBlockGraph(&prog.Functions[i], i)
			if err != nil {
				return err
			}
			for _, b := range g.Blocks {
				nodes = append(nodes, b)
			}
			label = func(n cfg.FlowNode) string { return dot.BlockLabel(n.(*cfg.Block)) }
		}

		fmt.Fprintln(w, dot.Graph(fn.Name, nodes, label))
	}
	return nil
}

func grainName(fine bool) string {
	if fine {
		return "fine-grain"
	}
	return "basic-block"
}

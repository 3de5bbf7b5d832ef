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
	"github.com/brilgo/brilopt/internal/ssa"
)

var (
	ssaTo    bool
	ssaFrom  bool
	ssaCheck bool
)

var ssaCmd = &cobra.Command{
	Use:   "ssa",
	Short: "Convert to/from SSA form, or validate it",
	Long: `ssa reads a program from stdin and applies exactly one of: -to
(construct SSA via φ-insertion and renaming), -from (destroy SSA,
materializing φ-nodes as predecessor-block copies), or -check (validate
the three SSA invariants without transforming anything). With -v the
resulting per-function CFG is also emitted as DOT to stderr.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSSA(os.Stdin, os.Stdout, loggerFor(cmd), ssaTo, ssaFrom, ssaCheck)
	},
}

func init() {
	ssaCmd.Flags().BoolVar(&ssaTo, "to", false, "convert to SSA form")
	ssaCmd.Flags().BoolVar(&ssaFrom, "from", false, "convert out of SSA form")
	ssaCmd.Flags().BoolVar(&ssaCheck, "check", false, "validate SSA invariants")
}

func runSSA(r io.Reader, w io.Writer, logger *ioutil.Logger, to, from, check bool) error {
	picked := 0
	for _, b := range []bool{to, from, check} {
		if b {
			picked++
		}
	}
	if picked != 1 {
		return fmt.Errorf("ssa: pick exactly one of -to, -from, -check")
	}

	prog, err := ir.Decode(r)
	if err != nil {
		return err
	}

	for i := range prog.Functions {
		fn := &prog.Functions[i]

		g, err := cfg.BuildBlockGraph(fn, i)
		if err != nil {
			return err
		}
		if len(g.Blocks) == 0 {
			continue
		}

		switch {
		case to:
			logger.Progress("converting %q to SSA", fn.Name)
			if err := ssa.ToSSA(g, fn); err != nil {
				return err
			}
			fn.Instrs = flattenBlocks(g)

		case from:
			logger.Progress("converting %q out of SSA", fn.Name)
			ssa.FromSSA(g)
			fn.Instrs = flattenBlocks(g)

		case check:
			logger.Progress("validating %q", fn.Name)
			if err := ssa.Validate(g); err != nil {
				return err
			}
		}

		if logger.IsVerbose() {
			var nodes []cfg.FlowNode
			for _, b := range g.Blocks {
				nodes = append(nodes, b)
			}
			logger.Progress("%s", dot.Graph(fn.Name, nodes, func(n cfg.FlowNode) string {
				return dot.BlockLabel(n.(*cfg.Block))
			}))
		}
	}

	if check {
		return nil
	}
	return ir.Encode(w, prog)
}

// flattenBlocks rebuilds a function's flat instruction list from its
// (possibly rewritten) block graph, in block order.
func flattenBlocks(g *cfg.BlockGraph) []ir.Instruction {
	var out []ir.Instruction
	for _, b := range g.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

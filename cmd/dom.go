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

var (
	domTree     bool
	domFrontier bool
)

var domCmd = &cobra.Command{
	Use:   "dom",
	Short: "Print dominator trees or dominance frontiers",
	Long: `dom reads a program from stdin, computes each function's dominator
sets over its basic-block CFG, and prints either the immediate-dominator
tree (-t) or per-block dominance frontiers (-f). With -v it additionally
writes a filmstrip of DOT frames to stderr, one per block; every frame
renders the final dominator tree.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDom(os.Stdin, os.Stdout, loggerFor(cmd), domTree, domFrontier)
	},
}

func init() {
	domCmd.Flags().BoolVarP(&domTree, "tree", "t", false, "print the immediate-dominator tree")
	domCmd.Flags().BoolVarP(&domFrontier, "frontier", "f", false, "print per-block dominance frontiers")
}

func runDom(r io.Reader, w io.Writer, logger *ioutil.Logger, tree, frontier bool) error {
	if !tree && !frontier {
		return fmt.Errorf("dom: pick an action, -t (tree) or -f (frontier)")
	}

	prog, err := ir.Decode(r)
	if err != nil {
		return err
	}

	for i, fn := range prog.Functions {
		g, err := cfg.BuildBlockGraph(&prog.Functions[i], i)
		if err != nil {
			return err
		}
		if len(g.Blocks) == 0 {
			continue
		}

		dominators, err := cfg.ComputeDominators(g.Entry)
		if err != nil {
			return err
		}
		logger.Progress("computed dominators for %q", fn.Name)

		if tree {
			fmt.Fprintf(w, "function %s:\n", fn.Name)
			printDomTree(w, dominators, g.Entry, 0)
		}
		if frontier {
			fmt.Fprintf(w, "function %s:\n", fn.Name)
			printFrontiers(w, dominators, g)
		}
		if logger.IsVerbose() {
			emitFrontierFilmstrip(logger, fn.Name, dominators, g)
		}
	}
	return nil
}

func printDomTree(w io.Writer, d *cfg.Dominators, n cfg.FlowNode, depth int) {
	fmt.Fprintf(w, "%*s%s\n", depth*2, "", n.NodeID())
	for _, c := range d.Children(n) {
		printDomTree(w, d, c, depth+1)
	}
}

func printFrontiers(w io.Writer, d *cfg.Dominators, g *cfg.BlockGraph) {
	for _, b := range g.Blocks {
		var ids []string
		for _, f := range d.Frontier(b) {
			ids = append(ids, f.NodeID())
		}
		fmt.Fprintf(w, "%s: %v\n", b.NodeID(), ids)
	}
}

// emitFrontierFilmstrip writes one DOT frame per block, each rendering the
// final dominator tree, giving -v a sequence of frames to step through
// (§6 "filmstrip of DOT frames").
func emitFrontierFilmstrip(logger *ioutil.Logger, name string, d *cfg.Dominators, g *cfg.BlockGraph) {
	logger.StartProgress(fmt.Sprintf("rendering filmstrip for %s", name), len(g.Blocks))
	defer logger.FinishProgress()

	for idx, b := range g.Blocks {
		frame := dot.DominatorTree(fmt.Sprintf("%s_frame%d", name, idx), d)
		logger.Progress("frame %d (block %s):\n%s", idx, b.NodeID(), frame)
		logger.StepProgress()
	}
}

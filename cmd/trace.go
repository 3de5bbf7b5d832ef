package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brilgo/brilopt/internal/ioutil"
	"github.com/brilgo/brilopt/internal/ir"
	"github.com/brilgo/brilopt/internal/tracestitch"
)

var tracePath string

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Splice a recorded instruction trace into function main",
	Long: `trace reads a program from stdin and a trace file named by -t: a JSON
list of instruction lists, one per function in the input program. Only the
trace entry aligned with function main is used; branch instructions are
stripped from it before splicing it between speculate/commit guards.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tracePath == "" {
			return fmt.Errorf("trace: -t PATH is required")
		}
		traces, err := loadTraces(tracePath)
		if err != nil {
			return err
		}
		return runTrace(os.Stdin, os.Stdout, loggerFor(cmd), traces)
	},
}

func init() {
	traceCmd.Flags().StringVarP(&tracePath, "trace", "t", "", "path to the trace file (required)")
}

func runTrace(r io.Reader, w io.Writer, logger *ioutil.Logger, traces [][]ir.Instruction) error {
	prog, err := ir.Decode(r)
	if err != nil {
		return err
	}

	for i := range prog.Functions {
		fn := &prog.Functions[i]
		if fn.Name != "main" {
			continue
		}
		if i >= len(traces) {
			logger.Warning("no trace entry aligned with function %q", fn.Name)
			continue
		}
		filtered := tracestitch.StripBranches(traces[i])
		tracestitch.Stitch(fn, filtered, logger)
	}

	return ir.Encode(w, prog)
}

func loadTraces(path string) ([][]ir.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: opening %s: %w", path, err)
	}
	defer f.Close()

	var traces [][]ir.Instruction
	if err := json.NewDecoder(f).Decode(&traces); err != nil {
		return nil, fmt.Errorf("trace: decoding %s: %w", path, err)
	}
	return traces, nil
}

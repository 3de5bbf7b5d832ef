package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brilgo/brilopt/internal/ioutil"
)

func TestRunDomRequiresASelector(t *testing.T) {
	var out bytes.Buffer
	err := runDom(strings.NewReader(branchProgram), &out, testLogger(), false, false)
	require.Error(t, err)
}

func TestRunDomTreePrintsEntryFirst(t *testing.T) {
	var out bytes.Buffer
	err := runDom(strings.NewReader(branchProgram), &out, testLogger(), true, false)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, "function main:", lines[0])
	require.Equal(t, "f0-0", strings.TrimSpace(lines[1]))
}

func TestRunDomFrontierListsJoinBlockForBothBranches(t *testing.T) {
	var out bytes.Buffer
	err := runDom(strings.NewReader(branchProgram), &out, testLogger(), false, true)
	require.NoError(t, err)
	require.Contains(t, out.String(), "f0-1: [f0-3]")
	require.Contains(t, out.String(), "f0-2: [f0-3]")
}

func TestRunDomVerboseFilmstripReportsProgress(t *testing.T) {
	var out bytes.Buffer
	var logs bytes.Buffer
	logger := ioutil.NewLoggerWithWriter(ioutil.VerbosityVerbose, &logs)

	err := runDom(strings.NewReader(branchProgram), &out, logger, true, false)
	require.NoError(t, err)
	require.Contains(t, logs.String(), "rendering filmstrip for main")
}

package maincmd_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DC1996/ipp21-interpreter/internal/filetest"
	"github.com/DC1996/ipp21-interpreter/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpdateMaincmdTests = flag.Bool("test.update-maincmd-tests", false, "If set, replace expected maincmd test results with actual results.")

// TestRunSourceFiles executes every document in testdata/in against the
// CLI entry point and diffs stdout with the golden file in testdata/out.
func TestRunSourceFiles(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".xml") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{
				Stdin:  strings.NewReader(""),
				Stdout: &buf,
				Stderr: &ebuf,
			}

			c := maincmd.Cmd{BuildVersion: "test", BuildDate: "test"}
			code := c.Main([]string{"ipp21", "--source=" + filepath.Join(srcDir, fi.Name())}, stdio)
			assert.Equal(t, mainer.ExitCode(0), code)
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateMaincmdTests)
		})
	}
}

func TestMainRejectsMissingSourceAndInput(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &buf, Stderr: &ebuf}

	c := maincmd.Cmd{BuildVersion: "test", BuildDate: "test"}
	code := c.Main([]string{"ipp21"}, stdio)
	require.Equal(t, mainer.ExitCode(10), code)
}

func TestMainReportsOpenFailureAsExitCode11(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &buf, Stderr: &ebuf}

	c := maincmd.Cmd{BuildVersion: "test", BuildDate: "test"}
	code := c.Main([]string{"ipp21", "--source=testdata/does-not-exist.xml"}, stdio)
	require.Equal(t, mainer.ExitCode(11), code)
}

func TestMainHelpAndVersion(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &buf, Stderr: &ebuf}

	c := maincmd.Cmd{BuildVersion: "1.0.0", BuildDate: "2026-01-01"}
	code := c.Main([]string{"ipp21", "--help"}, stdio)
	require.Equal(t, mainer.Success, code)
	require.Contains(t, buf.String(), "usage: ipp21")

	buf.Reset()
	code = c.Main([]string{"ipp21", "--version"}, stdio)
	require.Equal(t, mainer.Success, code)
	require.Contains(t, buf.String(), "1.0.0")
}

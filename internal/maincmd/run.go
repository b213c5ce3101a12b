package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/DC1996/ipp21-interpreter/lang/document"
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/machine"
	"github.com/mna/mainer"
)

// run loads the program document named by --source (or stdin), checks its
// structural integrity, and executes it against the input stream named by
// --input (or stdin), returning the process exit code.
func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio) int {
	if c.Source == "" && c.Input == "" {
		fmt.Fprintln(stdio.Stderr, "at least one of --source or --input must be given")
		return 10
	}

	var sourceR io.Reader = stdio.Stdin
	if c.Source != "" {
		f, err := os.Open(c.Source)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "cannot open --source file: %s\n", err)
			return 11
		}
		defer f.Close()
		sourceR = f
	}

	var inputR io.Reader = stdio.Stdin
	if c.Input != "" {
		f, err := os.Open(c.Input)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "cannot open --input file: %s\n", err)
			return 11
		}
		defer f.Close()
		inputR = f
	}

	raw, err := document.Load(sourceR)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return errs.CodeOf(err)
	}
	prog, err := document.Check(raw)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return errs.CodeOf(err)
	}

	m := machine.New(prog, machine.NewInputSource(inputR), stdio.Stdout, stdio.Stderr)
	code, err := m.Run(ctx)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return errs.CodeOf(err)
	}
	return code
}

package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "ipp21"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s --source=PATH [--input=PATH]
       %[1]s --input=PATH
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter for the ipp21 intermediate-representation language: reads a
program document, checks its structural integrity, and executes it.

Valid flag options are:
       --source=PATH             Path to the program document (XML). If
                                 omitted, the document is read from
                                 standard input, and --input must name
                                 the file used for READ.
       --input=PATH              Path to the file supplying READ's input
                                 lines. If omitted, input is read from
                                 standard input.
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

At least one of --source or --input must be given, since both cannot
read from standard input at once.
`, binName)
)

// Cmd is the ipp21 command line: SetArgs/SetFlags/Validate populate the
// struct, then Main parses flags and dispatches.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Source string `flag:"source"`
	Input  string `flag:"input"`

	// args holds any leftover positional arguments; mainer.Parser requires
	// SetArgs to be implemented, but this CLI takes none.
	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(map[string]bool) {}

// Validate only rejects flag combinations mainer itself cannot express;
// the "at least one of --source/--input" rule carries a specific exit
// code (10), so it is enforced in run instead of here, where mainer would
// map any Validate error to its own InvalidArgs code.
func (c *Cmd) Validate() error {
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(10)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	code := c.run(ctx, stdio)
	return mainer.ExitCode(code)
}

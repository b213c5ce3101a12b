package machine

import (
	"context"
	"io"

	"github.com/DC1996/ipp21-interpreter/lang/document"
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/value"
)

// Machine is the runtime state for one execution: the frame store, the
// data and call stacks, the input source, the standard streams, and the
// program being executed.
type Machine struct {
	Program *document.Program
	Frames  *FrameStore
	Data    DataStack
	Calls   CallStack
	Input   *InputSource

	Stdout io.Writer
	Stderr io.Writer

	pc int
}

// New builds a machine ready to execute prog, reading READ input from in
// and writing WRITE/DPRINT/BREAK output to stdout/stderr.
func New(prog *document.Program, in *InputSource, stdout, stderr io.Writer) *Machine {
	return &Machine{
		Program: prog,
		Frames:  NewFrameStore(),
		Input:   in,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

// opcodeFunc executes one instruction. Run always advances the PC by one
// after a successful call, matching the FETCH/DECODE/EXECUTE/ADVANCE
// discipline of the dispatcher: a control-flow handler (JUMP, CALL, RETURN,
// JUMPIFEQ, JUMPIFNEQ) sets m.pc to its target's own index, one less than
// where execution should resume, so the unconditional increment lands on
// the right instruction.
type opcodeFunc func(m *Machine, args []document.Arg) error

// Run executes the program from PC 0 until the PC passes the last
// instruction or EXIT fires, checking ctx once per fetched instruction so a
// long-running program can be interrupted between instructions (the only
// suspension point this otherwise-synchronous model has).
// It returns the process exit code.
func (m *Machine) Run(ctx context.Context) (int, error) {
	m.pc = 0
	instrs := m.Program.Instructions
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if m.pc >= len(instrs) {
			return 0, nil
		}

		instr := instrs[m.pc]
		fn, ok := opcodeTable[instr.Opcode]
		if !ok {
			return 0, errs.Newf(32, "unknown opcode %q", instr.Opcode)
		}

		if err := fn(m, instr.Args); err != nil {
			if ec, ok := err.(*exitSignal); ok {
				return ec.code, nil
			}
			return 0, err
		}
		m.pc++
	}
}

// exitSignal unwinds Run when EXIT fires; it is not part of the error
// taxonomy, only a control-transfer mechanism internal to this package.
type exitSignal struct{ code int }

func (e *exitSignal) Error() string { return "exit" }

// resolveValue yields the value denoted by a value-producing argument: a
// variable is resolved through the frame store, anything else is already a
// decoded literal.
func (m *Machine) resolveValue(a document.Arg) (value.Value, error) {
	if a.Kind == document.KindVar {
		return m.Frames.Get(a.Frame, a.Name)
	}
	return a.Lit, nil
}

// resolveDefined is resolveValue plus the "missing value" check (56) that
// every value-consuming operation needs.
func (m *Machine) resolveDefined(a document.Arg) (value.Value, error) {
	v, err := m.resolveValue(a)
	if err != nil {
		return nil, err
	}
	if value.IsUndefined(v) {
		return nil, errs.New(56, "missing value")
	}
	return v, nil
}

// assign writes v to the variable target a, which must be of kind var.
func (m *Machine) assign(a document.Arg, v value.Value) error {
	return m.Frames.Set(a.Frame, a.Name, v)
}

// checkTarget verifies that a write target already exists (55 if its frame
// is absent, 54 if the name is not defined in it) before any source operand
// is resolved. Handlers that assign a result call this on arg1 first, so a
// bad target is reported ahead of any 53/56/57/58 a source operand might
// raise, matching the documented error precedence and argument order.
func (m *Machine) checkTarget(a document.Arg) error {
	_, err := m.Frames.Get(a.Frame, a.Name)
	return err
}

// resolveLabel looks up a label argument's PC, failing with 52 if the
// label is undefined (Check already rejected duplicates).
func (m *Machine) resolveLabel(a document.Arg) (int, error) {
	pc, ok := m.Program.Labels.Lookup(a.Text)
	if !ok {
		return 0, errs.Newf(52, "undefined label %q", a.Text)
	}
	return pc, nil
}

func requireArgCount(opcode string, args []document.Arg, n int) error {
	if len(args) != n {
		return errs.Newf(32, "%s: expected %d argument(s), got %d", opcode, n, len(args))
	}
	return nil
}

func requireType(v value.Value, want string) error {
	if v.Type() != want {
		return errs.Newf(53, "expected a %s value, got %s", want, typeLabel(v))
	}
	return nil
}

func typeLabel(v value.Value) string {
	if value.IsUndefined(v) {
		return "undefined"
	}
	return v.Type()
}

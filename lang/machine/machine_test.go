package machine_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DC1996/ipp21-interpreter/lang/document"
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/machine"
	"github.com/stretchr/testify/require"
)

// runProgram parses and checks xmlSrc, then executes it against stdin,
// returning everything written to stdout/stderr, the exit code, and any
// error that terminated execution early (as opposed to a clean EXIT/falling
// off the end of the program).
func runProgram(t *testing.T, xmlSrc, stdin string) (stdout, stderr string, code int, err error) {
	t.Helper()
	raw, err := document.Load(strings.NewReader(xmlSrc))
	require.NoError(t, err)
	prog, err := document.Check(raw)
	require.NoError(t, err)

	var outBuf, errBuf bytes.Buffer
	m := machine.New(prog, machine.NewInputSource(strings.NewReader(stdin)), &outBuf, &errBuf)
	code, err = m.Run(context.Background())
	return outBuf.String(), errBuf.String(), code, err
}

func TestRunHelloWorld(t *testing.T) {
	stdout, _, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="WRITE">
			<arg1 type="string">hello, world</arg1>
		</instruction>
	</program>`, "")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hello, world", stdout)
}

func TestRunArithmeticAndJumps(t *testing.T) {
	// GF@i = 0; GF@sum = 0
	// loop: JUMPIFEQ end, GF@i, int@5
	//       ADD GF@sum GF@sum GF@i
	//       ADD GF@i GF@i int@1
	//       JUMP loop
	// end:  WRITE GF@sum
	stdout, _, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@i</arg1></instruction>
		<instruction order="2" opcode="DEFVAR"><arg1 type="var">GF@sum</arg1></instruction>
		<instruction order="3" opcode="MOVE"><arg1 type="var">GF@i</arg1><arg2 type="int">0</arg2></instruction>
		<instruction order="4" opcode="MOVE"><arg1 type="var">GF@sum</arg1><arg2 type="int">0</arg2></instruction>
		<instruction order="5" opcode="LABEL"><arg1 type="label">loop</arg1></instruction>
		<instruction order="6" opcode="JUMPIFEQ">
			<arg1 type="label">end</arg1>
			<arg2 type="var">GF@i</arg2>
			<arg3 type="int">5</arg3>
		</instruction>
		<instruction order="7" opcode="ADD">
			<arg1 type="var">GF@sum</arg1>
			<arg2 type="var">GF@sum</arg2>
			<arg3 type="var">GF@i</arg3>
		</instruction>
		<instruction order="8" opcode="ADD">
			<arg1 type="var">GF@i</arg1>
			<arg2 type="var">GF@i</arg2>
			<arg3 type="int">1</arg3>
		</instruction>
		<instruction order="9" opcode="JUMP"><arg1 type="label">loop</arg1></instruction>
		<instruction order="10" opcode="LABEL"><arg1 type="label">end</arg1></instruction>
		<instruction order="11" opcode="WRITE"><arg1 type="var">GF@sum</arg1></instruction>
	</program>`, "")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "10", stdout) // 0+1+2+3+4
}

func TestRunCallAndReturn(t *testing.T) {
	// CALL sub; WRITE "after"; JUMP end
	// sub: WRITE "in-sub-"; RETURN
	// end: (falls off)
	stdout, _, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="CALL"><arg1 type="label">sub</arg1></instruction>
		<instruction order="2" opcode="WRITE"><arg1 type="string">after</arg1></instruction>
		<instruction order="3" opcode="JUMP"><arg1 type="label">end</arg1></instruction>
		<instruction order="4" opcode="LABEL"><arg1 type="label">sub</arg1></instruction>
		<instruction order="5" opcode="WRITE"><arg1 type="string">in-sub-</arg1></instruction>
		<instruction order="6" opcode="RETURN"></instruction>
		<instruction order="7" opcode="LABEL"><arg1 type="label">end</arg1></instruction>
	</program>`, "")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "in-sub-after", stdout)
}

func TestRunFrameMoveSemantics(t *testing.T) {
	// CREATEFRAME; DEFVAR TF@x; MOVE TF@x, string@hi; PUSHFRAME; WRITE LF@x
	stdout, _, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="CREATEFRAME"></instruction>
		<instruction order="2" opcode="DEFVAR"><arg1 type="var">TF@x</arg1></instruction>
		<instruction order="3" opcode="MOVE"><arg1 type="var">TF@x</arg1><arg2 type="string">hi</arg2></instruction>
		<instruction order="4" opcode="PUSHFRAME"></instruction>
		<instruction order="5" opcode="WRITE"><arg1 type="var">LF@x</arg1></instruction>
	</program>`, "")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hi", stdout)
}

func TestRunExitCode(t *testing.T) {
	_, _, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="EXIT"><arg1 type="int">12</arg1></instruction>
	</program>`, "")
	require.NoError(t, err)
	require.Equal(t, 12, code)
}

func TestRunExitCodeOutOfRange(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="EXIT"><arg1 type="int">99</arg1></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 57, errs.CodeOf(err))
}

func TestRunDivisionByZero(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@r</arg1></instruction>
		<instruction order="2" opcode="IDIV">
			<arg1 type="var">GF@r</arg1>
			<arg2 type="int">10</arg2>
			<arg3 type="int">0</arg3>
		</instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 57, errs.CodeOf(err))
}

func TestRunMissingValue(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@x</arg1></instruction>
		<instruction order="2" opcode="WRITE"><arg1 type="var">GF@x</arg1></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 56, errs.CodeOf(err))
}

func TestRunUndefinedVariable(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="WRITE"><arg1 type="var">GF@nope</arg1></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 54, errs.CodeOf(err))
}

func TestRunFrameAbsent(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="WRITE"><arg1 type="var">TF@x</arg1></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 55, errs.CodeOf(err))
}

func TestRunTypeMismatch(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@r</arg1></instruction>
		<instruction order="2" opcode="ADD">
			<arg1 type="var">GF@r</arg1>
			<arg2 type="int">1</arg2>
			<arg3 type="string">not-an-int</arg3>
		</instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 53, errs.CodeOf(err))
}

func TestRunUnknownLabel(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="JUMP"><arg1 type="label">nowhere</arg1></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 52, errs.CodeOf(err))
}

func TestRunUnknownOpcode(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="FROBNICATE"></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 32, errs.CodeOf(err))
}

func TestRunReadAndStringOps(t *testing.T) {
	stdout, _, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@s</arg1></instruction>
		<instruction order="2" opcode="READ"><arg1 type="var">GF@s</arg1><arg2 type="type">string</arg2></instruction>
		<instruction order="3" opcode="DEFVAR"><arg1 type="var">GF@n</arg1></instruction>
		<instruction order="4" opcode="STRLEN"><arg1 type="var">GF@n</arg1><arg2 type="var">GF@s</arg2></instruction>
		<instruction order="5" opcode="WRITE"><arg1 type="var">GF@n</arg1></instruction>
	</program>`, "hello\n")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "5", stdout)
}

// TestRunTargetFrameAbsentOutranksSourceMissingValue checks that a MOVE
// whose target frame doesn't exist fails with 55, even though the source
// operand is also Undefined and would otherwise raise 56 on its own.
func TestRunTargetFrameAbsentOutranksSourceMissingValue(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@y</arg1></instruction>
		<instruction order="2" opcode="MOVE"><arg1 type="var">TF@x</arg1><arg2 type="var">GF@y</arg2></instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 55, errs.CodeOf(err))
}

// TestRunConcatTypeMismatchOutranksOtherOperandMissingValue checks that
// CONCAT reports a type mismatch (53) on its first operand even when the
// second operand is Undefined, which on its own would raise 56.
func TestRunConcatTypeMismatchOutranksOtherOperandMissingValue(t *testing.T) {
	_, _, _, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@x</arg1></instruction>
		<instruction order="2" opcode="DEFVAR"><arg1 type="var">GF@y</arg1></instruction>
		<instruction order="3" opcode="DEFVAR"><arg1 type="var">GF@r</arg1></instruction>
		<instruction order="4" opcode="MOVE"><arg1 type="var">GF@x</arg1><arg2 type="int">5</arg2></instruction>
		<instruction order="5" opcode="CONCAT">
			<arg1 type="var">GF@r</arg1>
			<arg2 type="var">GF@x</arg2>
			<arg3 type="var">GF@y</arg3>
		</instruction>
	</program>`, "")
	require.Error(t, err)
	require.Equal(t, 53, errs.CodeOf(err))
}

func TestRunBreakDumpsToStderr(t *testing.T) {
	_, stderr, code, err := runProgram(t, `<program>
		<instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@x</arg1></instruction>
		<instruction order="2" opcode="MOVE"><arg1 type="var">GF@x</arg1><arg2 type="int">1</arg2></instruction>
		<instruction order="3" opcode="BREAK"></instruction>
	</program>`, "")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Contains(t, stderr, "BREAK at instruction 2")
	require.Contains(t, stderr, "GF: 1 variable(s)")
	require.Contains(t, stderr, "x = 1 (int)")
}

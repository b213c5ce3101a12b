package machine

import (
	"fmt"
	"unicode/utf8"

	"github.com/DC1996/ipp21-interpreter/lang/decode"
	"github.com/DC1996/ipp21-interpreter/lang/document"
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/value"
)

// opcodeTable maps an (already upper-cased, see document.Check) opcode
// mnemonic to its handler. Built once, keyed by mnemonic instead of a
// numeric bytecode since instructions arrive pre-decoded from the
// document rather than compiled from source text.
var opcodeTable = map[string]opcodeFunc{
	"MOVE":        opMove,
	"CREATEFRAME": opCreateFrame,
	"PUSHFRAME":   opPushFrame,
	"POPFRAME":    opPopFrame,
	"DEFVAR":      opDefvar,

	"PUSHS": opPushs,
	"POPS":  opPops,

	"ADD":  opArith("ADD", func(a, b int64) (int64, error) { return a + b, nil }),
	"SUB":  opArith("SUB", func(a, b int64) (int64, error) { return a - b, nil }),
	"MUL":  opArith("MUL", func(a, b int64) (int64, error) { return a * b, nil }),
	"IDIV": opArith("IDIV", floorDiv),

	"LT": opRelational("LT"),
	"GT": opRelational("GT"),
	"EQ": opEq,

	"AND": opLogical("AND", func(a, b bool) bool { return a && b }),
	"OR":  opLogical("OR", func(a, b bool) bool { return a || b }),
	"NOT": opNot,

	"TYPE": opType,

	"INT2CHAR": opInt2Char,
	"STRI2INT": opStri2Int,
	"CONCAT":   opConcat,
	"STRLEN":   opStrlen,
	"GETCHAR":  opGetChar,
	"SETCHAR":  opSetChar,

	"WRITE":  opWrite,
	"DPRINT": opDprint,
	"READ":   opRead,

	"LABEL":     opLabel,
	"JUMP":      opJump,
	"JUMPIFEQ":  opJumpIf("JUMPIFEQ", true),
	"JUMPIFNEQ": opJumpIf("JUMPIFNEQ", false),
	"CALL":      opCall,
	"RETURN":    opReturn,
	"EXIT":      opExit,

	"BREAK": opBreak,
}

// checkOperand reports whether v is Undefined, or fails with 53 if v is
// defined but not of type want. The caller checks the undefined flags of
// all operands only after every operand has cleared its type check, which
// is what gives type-mismatch (53) priority over missing-value (56) per the
// documented error precedence.
func checkOperand(v value.Value, want string) (undefined bool, err error) {
	if value.IsUndefined(v) {
		return true, nil
	}
	if v.Type() != want {
		return false, errs.Newf(53, "expected a %s value, got %s", want, v.Type())
	}
	return false, nil
}

func opMove(m *Machine, args []document.Arg) error {
	if err := requireArgCount("MOVE", args, 2); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[1])
	if err != nil {
		return err
	}
	return m.assign(args[0], v)
}

func opCreateFrame(m *Machine, args []document.Arg) error {
	if err := requireArgCount("CREATEFRAME", args, 0); err != nil {
		return err
	}
	m.Frames.CreateFrame()
	return nil
}

func opPushFrame(m *Machine, args []document.Arg) error {
	if err := requireArgCount("PUSHFRAME", args, 0); err != nil {
		return err
	}
	return m.Frames.PushFrame()
}

func opPopFrame(m *Machine, args []document.Arg) error {
	if err := requireArgCount("POPFRAME", args, 0); err != nil {
		return err
	}
	return m.Frames.PopFrame()
}

func opDefvar(m *Machine, args []document.Arg) error {
	if err := requireArgCount("DEFVAR", args, 1); err != nil {
		return err
	}
	return m.Frames.Define(args[0].Frame, args[0].Name)
}

func opPushs(m *Machine, args []document.Arg) error {
	if err := requireArgCount("PUSHS", args, 1); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[0])
	if err != nil {
		return err
	}
	m.Data.Push(v)
	return nil
}

func opPops(m *Machine, args []document.Arg) error {
	if err := requireArgCount("POPS", args, 1); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v, err := m.Data.Pop()
	if err != nil {
		return err
	}
	return m.assign(args[0], v)
}

func floorDiv(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errs.New(57, "IDIV: division by zero")
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q, nil
}

func opArith(name string, op func(a, b int64) (int64, error)) opcodeFunc {
	return func(m *Machine, args []document.Arg) error {
		if err := requireArgCount(name, args, 3); err != nil {
			return err
		}
		if err := m.checkTarget(args[0]); err != nil {
			return err
		}
		v1, err := m.resolveValue(args[1])
		if err != nil {
			return err
		}
		v2, err := m.resolveValue(args[2])
		if err != nil {
			return err
		}
		u1, err := checkOperand(v1, "int")
		if err != nil {
			return err
		}
		u2, err := checkOperand(v2, "int")
		if err != nil {
			return err
		}
		if u1 || u2 {
			return errs.New(56, "missing value")
		}
		result, err := op(int64(v1.(value.Int)), int64(v2.(value.Int)))
		if err != nil {
			return err
		}
		return m.assign(args[0], value.Int(result))
	}
}

func opRelational(name string) opcodeFunc {
	return func(m *Machine, args []document.Arg) error {
		if err := requireArgCount(name, args, 3); err != nil {
			return err
		}
		if err := m.checkTarget(args[0]); err != nil {
			return err
		}
		v1, v2, err := resolveDefinedPair(m, args[1], args[2])
		if err != nil {
			return err
		}
		if !value.SameOrderableType(v1, v2) {
			return errs.Newf(53, "%s: operands must share an orderable type", name)
		}
		less := value.Less(v1, v2)
		var result bool
		if name == "LT" {
			result = less
		} else {
			result = !less && !value.Equal(v1, v2)
		}
		return m.assign(args[0], value.Bool(result))
	}
}

func opEq(m *Machine, args []document.Arg) error {
	if err := requireArgCount("EQ", args, 3); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v1, v2, err := resolveDefinedPair(m, args[1], args[2])
	if err != nil {
		return err
	}
	if !value.ComparableForEquality(v1, v2) {
		return errs.New(53, "EQ: operands must be the same type, or nil")
	}
	return m.assign(args[0], value.Bool(value.Equal(v1, v2)))
}

// resolveDefinedPair resolves two value-producing arguments, surfacing
// missing-value (56) only after both have been fetched, consistently with
// the arithmetic/logical handlers.
func resolveDefinedPair(m *Machine, a1, a2 document.Arg) (value.Value, value.Value, error) {
	v1, err := m.resolveValue(a1)
	if err != nil {
		return nil, nil, err
	}
	v2, err := m.resolveValue(a2)
	if err != nil {
		return nil, nil, err
	}
	if value.IsUndefined(v1) || value.IsUndefined(v2) {
		return nil, nil, errs.New(56, "missing value")
	}
	return v1, v2, nil
}

// resolveValuePair resolves two value-producing arguments without checking
// definedness. Callers that require a fixed, independent type per operand
// (CONCAT, STRI2INT/GETCHAR's string+index pair, SETCHAR's index+character
// pair) use this instead of resolveDefinedPair and run checkOperand on each
// operand first, so a type mismatch (53) on one operand outranks a missing
// value (56) on the other. resolveDefinedPair remains the right tool for
// EQ/relational/JUMPIFEQ/JUMPIFNEQ, whose comparability check has no
// independent want-type per operand to check in isolation.
func resolveValuePair(m *Machine, a1, a2 document.Arg) (value.Value, value.Value, error) {
	v1, err := m.resolveValue(a1)
	if err != nil {
		return nil, nil, err
	}
	v2, err := m.resolveValue(a2)
	if err != nil {
		return nil, nil, err
	}
	return v1, v2, nil
}

func opLogical(name string, op func(a, b bool) bool) opcodeFunc {
	return func(m *Machine, args []document.Arg) error {
		if err := requireArgCount(name, args, 3); err != nil {
			return err
		}
		if err := m.checkTarget(args[0]); err != nil {
			return err
		}
		v1, err := m.resolveValue(args[1])
		if err != nil {
			return err
		}
		v2, err := m.resolveValue(args[2])
		if err != nil {
			return err
		}
		u1, err := checkOperand(v1, "bool")
		if err != nil {
			return err
		}
		u2, err := checkOperand(v2, "bool")
		if err != nil {
			return err
		}
		if u1 || u2 {
			return errs.New(56, "missing value")
		}
		result := op(bool(v1.(value.Bool)), bool(v2.(value.Bool)))
		return m.assign(args[0], value.Bool(result))
	}
}

func opNot(m *Machine, args []document.Arg) error {
	if err := requireArgCount("NOT", args, 2); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[1])
	if err != nil {
		return err
	}
	if err := requireType(v, "bool"); err != nil {
		return err
	}
	return m.assign(args[0], value.Bool(!bool(v.(value.Bool))))
}

// opType never errors on Undefined: it reports the type name, or the empty
// string when the operand is Undefined.
func opType(m *Machine, args []document.Arg) error {
	if err := requireArgCount("TYPE", args, 2); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v, err := m.resolveValue(args[1])
	if err != nil {
		return err
	}
	name := ""
	if !value.IsUndefined(v) {
		name = v.Type()
	}
	return m.assign(args[0], value.Str(name))
}

func opInt2Char(m *Machine, args []document.Arg) error {
	if err := requireArgCount("INT2CHAR", args, 2); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[1])
	if err != nil {
		return err
	}
	if err := requireType(v, "int"); err != nil {
		return err
	}
	code := int64(v.(value.Int))
	if code < 0 || code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
		return errs.Newf(58, "INT2CHAR: %d is not a valid code point", code)
	}
	return m.assign(args[0], value.Str(string(rune(code))))
}

func opStri2Int(m *Machine, args []document.Arg) error {
	if err := requireArgCount("STRI2INT", args, 3); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	s, i, err := stringIndexOperands(m, args[1], args[2])
	if err != nil {
		return err
	}
	runes := []rune(s)
	if i < 0 || i >= int64(len(runes)) {
		return errs.Newf(58, "STRI2INT: index %d out of range", i)
	}
	return m.assign(args[0], value.Int(runes[i]))
}

func opConcat(m *Machine, args []document.Arg) error {
	if err := requireArgCount("CONCAT", args, 3); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v1, v2, err := resolveValuePair(m, args[1], args[2])
	if err != nil {
		return err
	}
	u1, err := checkOperand(v1, "string")
	if err != nil {
		return err
	}
	u2, err := checkOperand(v2, "string")
	if err != nil {
		return err
	}
	if u1 || u2 {
		return errs.New(56, "missing value")
	}
	return m.assign(args[0], value.Str(string(v1.(value.Str))+string(v2.(value.Str))))
}

func opStrlen(m *Machine, args []document.Arg) error {
	if err := requireArgCount("STRLEN", args, 2); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[1])
	if err != nil {
		return err
	}
	if err := requireType(v, "string"); err != nil {
		return err
	}
	return m.assign(args[0], value.Int(len([]rune(string(v.(value.Str))))))
}

func opGetChar(m *Machine, args []document.Arg) error {
	if err := requireArgCount("GETCHAR", args, 3); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	s, i, err := stringIndexOperands(m, args[1], args[2])
	if err != nil {
		return err
	}
	runes := []rune(s)
	if i < 0 || i >= int64(len(runes)) {
		return errs.Newf(58, "GETCHAR: index %d out of range", i)
	}
	return m.assign(args[0], value.Str(string(runes[i])))
}

// stringIndexOperands resolves the (string, int) operand pair shared by
// STRI2INT and GETCHAR, checking each operand's fixed expected type before
// declaring either one missing.
func stringIndexOperands(m *Machine, sArg, iArg document.Arg) (string, int64, error) {
	sv, iv, err := resolveValuePair(m, sArg, iArg)
	if err != nil {
		return "", 0, err
	}
	us, err := checkOperand(sv, "string")
	if err != nil {
		return "", 0, err
	}
	ui, err := checkOperand(iv, "int")
	if err != nil {
		return "", 0, err
	}
	if us || ui {
		return "", 0, errs.New(56, "missing value")
	}
	return string(sv.(value.Str)), int64(iv.(value.Int)), nil
}

func opSetChar(m *Machine, args []document.Arg) error {
	if err := requireArgCount("SETCHAR", args, 3); err != nil {
		return err
	}
	cur, err := m.resolveDefined(args[0])
	if err != nil {
		return err
	}
	if err := requireType(cur, "string"); err != nil {
		return err
	}
	iv, cv, err := resolveValuePair(m, args[1], args[2])
	if err != nil {
		return err
	}
	ui, err := checkOperand(iv, "int")
	if err != nil {
		return err
	}
	uc, err := checkOperand(cv, "string")
	if err != nil {
		return err
	}
	if ui || uc {
		return errs.New(56, "missing value")
	}
	idx := int64(iv.(value.Int))
	c := string(cv.(value.Str))
	runes := []rune(string(cur.(value.Str)))
	if idx < 0 || idx >= int64(len(runes)) || len(c) == 0 {
		return errs.New(58, "SETCHAR: index out of range or empty replacement")
	}
	replacement := []rune(c)
	runes[idx] = replacement[0]
	return m.assign(args[0], value.Str(string(runes)))
}

func opWrite(m *Machine, args []document.Arg) error {
	if err := requireArgCount("WRITE", args, 1); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(m.Stdout, v.String())
	return nil
}

func opDprint(m *Machine, args []document.Arg) error {
	if err := requireArgCount("DPRINT", args, 1); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(m.Stderr, v.String())
	return nil
}

func opRead(m *Machine, args []document.Arg) error {
	if err := requireArgCount("READ", args, 2); err != nil {
		return err
	}
	if err := m.checkTarget(args[0]); err != nil {
		return err
	}
	t := args[1]
	if t.Kind != document.KindType {
		return errs.New(53, "READ: second argument must be a type literal")
	}

	line, ok := m.Input.ReadLine()
	var result value.Value
	switch t.Text {
	case "int":
		if !ok {
			result = value.Nil
			break
		}
		n, err := decode.Int(line)
		if err != nil {
			result = value.Nil
		} else {
			result = value.Int(n)
		}
	case "string":
		if !ok {
			result = value.Nil
			break
		}
		result = value.Str(decode.String(line))
	case "bool":
		if !ok {
			result = value.Nil
			break
		}
		result = value.Bool(decode.Bool(line))
	default:
		return errs.Newf(53, "READ: unknown type %q", t.Text)
	}
	return m.assign(args[0], result)
}

// opLabel is a no-op at runtime: the label table was already built during
// document.Check.
func opLabel(m *Machine, args []document.Arg) error {
	return requireArgCount("LABEL", args, 1)
}

func opJump(m *Machine, args []document.Arg) error {
	if err := requireArgCount("JUMP", args, 1); err != nil {
		return err
	}
	pc, err := m.resolveLabel(args[0])
	if err != nil {
		return err
	}
	m.pc = pc
	return nil
}

func opJumpIf(name string, wantEqual bool) opcodeFunc {
	return func(m *Machine, args []document.Arg) error {
		if err := requireArgCount(name, args, 3); err != nil {
			return err
		}
		v1, v2, err := resolveDefinedPair(m, args[1], args[2])
		if err != nil {
			return err
		}
		if !value.ComparableForEquality(v1, v2) {
			return errs.Newf(53, "%s: operands must be the same type, or nil", name)
		}
		eq := value.Equal(v1, v2)
		if eq != wantEqual {
			return nil
		}
		pc, err := m.resolveLabel(args[0])
		if err != nil {
			return err
		}
		m.pc = pc
		return nil
	}
}

func opCall(m *Machine, args []document.Arg) error {
	if err := requireArgCount("CALL", args, 1); err != nil {
		return err
	}
	pc, err := m.resolveLabel(args[0])
	if err != nil {
		return err
	}
	m.Calls.Push(m.pc)
	m.pc = pc
	return nil
}

func opReturn(m *Machine, args []document.Arg) error {
	if err := requireArgCount("RETURN", args, 0); err != nil {
		return err
	}
	pc, err := m.Calls.Pop()
	if err != nil {
		return err
	}
	m.pc = pc
	return nil
}

func opExit(m *Machine, args []document.Arg) error {
	if err := requireArgCount("EXIT", args, 1); err != nil {
		return err
	}
	v, err := m.resolveDefined(args[0])
	if err != nil {
		return err
	}
	if err := requireType(v, "int"); err != nil {
		return err
	}
	code := int64(v.(value.Int))
	if code < 0 || code > 49 {
		return errs.Newf(57, "EXIT: code %d out of range [0,49]", code)
	}
	return &exitSignal{code: int(code)}
}

func opBreak(m *Machine, args []document.Arg) error {
	if err := requireArgCount("BREAK", args, 0); err != nil {
		return err
	}
	(&dumper{w: m.Stderr}).dump(m.pc, m.Frames)
	return nil
}

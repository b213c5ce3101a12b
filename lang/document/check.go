package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DC1996/ipp21-interpreter/lang/decode"
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/value"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

// ArgKind is the declared type tag of an argument node.
type ArgKind string

const (
	KindVar    ArgKind = "var"
	KindInt    ArgKind = "int"
	KindString ArgKind = "string"
	KindBool   ArgKind = "bool"
	KindNil    ArgKind = "nil"
	KindLabel  ArgKind = "label"
	KindType   ArgKind = "type"
)

// Arg is a fully decoded positional argument: literals carry their Value,
// var arguments carry Frame/Name, label/type arguments carry Text.
type Arg struct {
	Kind  ArgKind
	Frame string // GF, LF or TF; only set when Kind == KindVar
	Name  string // only set when Kind == KindVar
	Text  string // label name (KindLabel) or type name (KindType)
	Lit   value.Value
}

// Instruction is a document instruction after integrity checking and
// argument decoding, in final execution order.
type Instruction struct {
	Order  int
	Opcode string
	Args   []Arg
}

// Program is the validated, order-sorted instruction sequence plus its
// label table.
type Program struct {
	Instructions []Instruction
	Labels       *LabelTable
}

// LabelTable maps a label name to its instruction index (PC), built once
// during Check; duplicate label names fail with exit code 52.
type LabelTable struct {
	m *swiss.Map[string, int]
}

// Lookup returns the PC for label, or !ok if undefined.
func (lt *LabelTable) Lookup(label string) (int, bool) {
	return lt.m.Get(label)
}

// Check validates the raw document's structural integrity and builds the
// executable Program: unique positive order per instruction, non-empty
// opcode, argN children named/ordered ascending, a one-shot label table
// with duplicate detection, and the order-sorted instruction sequence whose
// index is the program counter used at runtime.
func Check(doc *rawDocument) (*Program, error) {
	seenOrders := make(map[int]bool, len(doc.Instructions))
	instrs := make([]Instruction, len(doc.Instructions))

	for i, raw := range doc.Instructions {
		order, err := strconv.Atoi(strings.TrimSpace(raw.Order))
		if err != nil || order <= 0 {
			return nil, errs.Newf(32, "instruction %d: order must be a positive integer, got %q", i, raw.Order)
		}
		if seenOrders[order] {
			return nil, errs.Newf(32, "duplicate instruction order %d", order)
		}
		seenOrders[order] = true

		if strings.TrimSpace(raw.Opcode) == "" {
			return nil, errs.Newf(32, "instruction with order %s: empty opcode", raw.Order)
		}

		args, err := checkArgs(raw)
		if err != nil {
			return nil, err
		}

		instrs[i] = Instruction{
			Order:  order,
			Opcode: strings.ToUpper(raw.Opcode),
			Args:   args,
		}
	}

	slices.SortFunc(instrs, func(a, b Instruction) int { return a.Order - b.Order })

	labels := swiss.NewMap[string, int](uint32(8))
	for pc, instr := range instrs {
		if instr.Opcode != "LABEL" {
			continue
		}
		if len(instr.Args) != 1 || instr.Args[0].Kind != KindLabel {
			return nil, errs.Newf(32, "LABEL at order %d: expected exactly one label argument", instr.Order)
		}
		name := instr.Args[0].Text
		if labels.Has(name) {
			return nil, errs.Newf(52, "label %q redefined", name)
		}
		labels.Put(name, pc)
	}

	return &Program{Instructions: instrs, Labels: &LabelTable{m: labels}}, nil
}

// checkArgs verifies that raw's children are named arg1, arg2, ... in
// ascending order (after sorting by name) and decodes each one.
func checkArgs(raw rawInstruction) ([]Arg, error) {
	sorted := make([]rawArg, len(raw.Args))
	copy(sorted, raw.Args)
	slices.SortFunc(sorted, func(a, b rawArg) int { return strings.Compare(a.XMLName.Local, b.XMLName.Local) })

	args := make([]Arg, len(sorted))
	for i, ra := range sorted {
		want := fmt.Sprintf("arg%d", i+1)
		if ra.XMLName.Local != want {
			return nil, errs.Newf(32, "instruction %s at order %s: expected argument %q, got %q",
				raw.Opcode, raw.Order, want, ra.XMLName.Local)
		}
		a, err := decodeArg(raw, ra)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	return args, nil
}

func decodeArg(raw rawInstruction, ra rawArg) (Arg, error) {
	switch ArgKind(ra.Type) {
	case KindVar:
		frame, name, ok := strings.Cut(ra.Value, "@")
		if !ok || (frame != "GF" && frame != "LF" && frame != "TF") || name == "" {
			return Arg{}, errs.Newf(32, "instruction %s at order %s: malformed variable reference %q",
				raw.Opcode, raw.Order, ra.Value)
		}
		return Arg{Kind: KindVar, Frame: frame, Name: name}, nil

	case KindInt:
		n, err := decode.Int(ra.Value)
		if err != nil {
			return Arg{}, errs.Newf(32, "instruction %s at order %s: invalid integer literal %q",
				raw.Opcode, raw.Order, ra.Value)
		}
		return Arg{Kind: KindInt, Lit: value.Int(n)}, nil

	case KindString:
		return Arg{Kind: KindString, Lit: value.Str(decode.String(ra.Value))}, nil

	case KindBool:
		switch ra.Value {
		case "true":
			return Arg{Kind: KindBool, Lit: value.Bool(true)}, nil
		case "false":
			return Arg{Kind: KindBool, Lit: value.Bool(false)}, nil
		default:
			return Arg{}, errs.Newf(32, "instruction %s at order %s: invalid boolean literal %q",
				raw.Opcode, raw.Order, ra.Value)
		}

	case KindNil:
		return Arg{Kind: KindNil, Lit: value.Nil}, nil

	case KindLabel:
		return Arg{Kind: KindLabel, Text: ra.Value}, nil

	case KindType:
		switch ra.Value {
		case "int", "string", "bool":
			return Arg{Kind: KindType, Text: ra.Value}, nil
		default:
			return Arg{}, errs.Newf(32, "instruction %s at order %s: invalid type literal %q",
				raw.Opcode, raw.Order, ra.Value)
		}

	default:
		return Arg{}, errs.Newf(32, "instruction %s at order %s: unknown argument type %q",
			raw.Opcode, raw.Order, ra.Type)
	}
}

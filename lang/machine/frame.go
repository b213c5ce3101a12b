// Package machine implements the runtime: the three-frame variable model,
// the data and call stacks, the input source, and the instruction
// dispatcher and handlers that execute a document.Program.
package machine

import (
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/value"
	"github.com/dolthub/swiss"
)

const initialFrameSize = 8

func newFrame() *swiss.Map[string, value.Value] {
	return swiss.NewMap[string, value.Value](uint32(initialFrameSize))
}

// FrameStore holds the three-frame model: a single global frame (always
// present), a stack of local frames (LF is the top), and an optional
// temporary frame.
//
// PUSHFRAME/POPFRAME move ownership of the underlying map rather than
// copying it: the pointer that was temp becomes the new top of locals (and
// vice versa), so the two frames are never aliased and invariants 2/3 of
// the testable properties hold by construction.
type FrameStore struct {
	global *swiss.Map[string, value.Value]
	locals []*swiss.Map[string, value.Value]
	temp   *swiss.Map[string, value.Value]
}

// NewFrameStore returns a store with only the global frame present.
func NewFrameStore() *FrameStore {
	return &FrameStore{global: newFrame()}
}

// CreateFrame replaces the temporary frame with a fresh, empty one,
// discarding any previous contents without error.
func (fs *FrameStore) CreateFrame() {
	fs.temp = newFrame()
}

// PushFrame moves the temporary frame onto the top of the local-frame
// stack. Fails with 55 if the temporary frame is absent.
func (fs *FrameStore) PushFrame() error {
	if fs.temp == nil {
		return errs.New(55, "PUSHFRAME: no temporary frame")
	}
	fs.locals = append(fs.locals, fs.temp)
	fs.temp = nil
	return nil
}

// PopFrame removes the top local frame and installs it as the temporary
// frame. Fails with 55 if the local-frame stack is empty.
func (fs *FrameStore) PopFrame() error {
	n := len(fs.locals)
	if n == 0 {
		return errs.New(55, "POPFRAME: no local frame")
	}
	fs.temp = fs.locals[n-1]
	fs.locals = fs.locals[:n-1]
	return nil
}

// frameFor resolves the frame prefix (GF, LF, TF) to its map, or fails with
// 55 if the referenced frame does not currently exist.
func (fs *FrameStore) frameFor(prefix string) (*swiss.Map[string, value.Value], error) {
	switch prefix {
	case "GF":
		return fs.global, nil
	case "LF":
		if len(fs.locals) == 0 {
			return nil, errs.New(55, "LF: no local frame")
		}
		return fs.locals[len(fs.locals)-1], nil
	case "TF":
		if fs.temp == nil {
			return nil, errs.New(55, "TF: no temporary frame")
		}
		return fs.temp, nil
	default:
		return nil, errs.Newf(55, "unknown frame %q", prefix)
	}
}

// Define creates a binding to Undefined in the named frame. Fails with 55 if
// the frame is absent, or 52 if the name is already defined in that frame.
func (fs *FrameStore) Define(prefix, name string) error {
	fr, err := fs.frameFor(prefix)
	if err != nil {
		return err
	}
	if fr.Has(name) {
		return errs.Newf(52, "variable %s@%s already defined", prefix, name)
	}
	fr.Put(name, value.Undefined)
	return nil
}

// Get returns the value bound to prefix@name. Fails with 55 (frame absent)
// or 54 (name absent in an existing frame).
func (fs *FrameStore) Get(prefix, name string) (value.Value, error) {
	fr, err := fs.frameFor(prefix)
	if err != nil {
		return nil, err
	}
	v, ok := fr.Get(name)
	if !ok {
		return nil, errs.Newf(54, "variable %s@%s not defined", prefix, name)
	}
	return v, nil
}

// Set updates an existing binding at prefix@name. Fails with 55 or 54
// analogously to Get.
func (fs *FrameStore) Set(prefix, name string, v value.Value) error {
	fr, err := fs.frameFor(prefix)
	if err != nil {
		return err
	}
	if !fr.Has(name) {
		return errs.Newf(54, "variable %s@%s not defined", prefix, name)
	}
	fr.Put(name, v)
	return nil
}

// Global, Locals and Temp expose the raw frames for diagnostics (BREAK).
func (fs *FrameStore) Global() *swiss.Map[string, value.Value]   { return fs.global }
func (fs *FrameStore) Locals() []*swiss.Map[string, value.Value] { return fs.locals }
func (fs *FrameStore) Temp() *swiss.Map[string, value.Value]     { return fs.temp }

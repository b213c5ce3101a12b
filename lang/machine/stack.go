package machine

import (
	"github.com/DC1996/ipp21-interpreter/lang/errs"
	"github.com/DC1996/ipp21-interpreter/lang/value"
)

// DataStack backs PUSHS/POPS: a sequence of values with top-at-end
// push/pop semantics.
type DataStack struct {
	vals []value.Value
}

func (s *DataStack) Push(v value.Value) { s.vals = append(s.vals, v) }

// Pop removes and returns the top value. Fails with 56 if the stack is
// empty.
func (s *DataStack) Pop() (value.Value, error) {
	n := len(s.vals)
	if n == 0 {
		return nil, errs.New(56, "POPS: data stack is empty")
	}
	v := s.vals[n-1]
	s.vals = s.vals[:n-1]
	return v, nil
}

// CallStack backs CALL/RETURN: a stack of saved program-counter values,
// i.e. the index of the CALL site itself, not the following instruction.
type CallStack struct {
	pcs []int
}

func (s *CallStack) Push(pc int) { s.pcs = append(s.pcs, pc) }

// Pop removes and returns the most recently saved PC. Fails with 56 if the
// call stack is empty.
func (s *CallStack) Pop() (int, error) {
	n := len(s.pcs)
	if n == 0 {
		return 0, errs.New(56, "RETURN: call stack is empty")
	}
	pc := s.pcs[n-1]
	s.pcs = s.pcs[:n-1]
	return pc, nil
}

// Package release provides scoped acquisition of GPU handles with guaranteed
// reverse-order release.
//
// Typical use during multi-step initialization:
//
//	var rs release.Stack
//	defer rs.ReleaseUnlessKept()
//
//	buf, err := device.CreateBuffer(desc)
//	if err != nil {
//		return err
//	}
//	rs.Push(func() { device.DestroyBuffer(buf) })
//	...
//	rs.Keep() // success: ownership moves to the caller
package release

// Stack holds release functions and runs them last-in first-out.
// The zero value is ready to use.
type Stack struct {
	fns  []func()
	kept bool
}

// Push registers fn to run on Release. Nil functions are ignored.
func (s *Stack) Push(fn func()) {
	if fn == nil {
		return
	}
	s.fns = append(s.fns, fn)
}

// Len reports how many release functions are pending.
func (s *Stack) Len() int { return len(s.fns) }

// Release runs every pending function in reverse push order and empties the
// stack. Calling it again is a no-op.
func (s *Stack) Release() {
	for i := len(s.fns) - 1; i >= 0; i-- {
		fn := s.fns[i]
		s.fns[i] = nil
		fn()
	}
	s.fns = s.fns[:0]
}

// Keep marks the stack as owned elsewhere so ReleaseUnlessKept does nothing.
func (s *Stack) Keep() { s.kept = true }

// ReleaseUnlessKept releases the stack unless Keep was called. It is meant for
// a deferred call on the error path of a constructor.
func (s *Stack) ReleaseUnlessKept() {
	if s.kept {
		return
	}
	s.Release()
}

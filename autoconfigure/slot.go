package autoconfigure

import (
	"errors"
	"sync"

	aadfilter "github.com/aadauth/go-aad-filter"
)

// ErrNilFilter is returned by Slot.GetOrCreate when the constructor returns
// neither a filter nor an error.
var ErrNilFilter = errors.New("filter constructor returned nil")

// Slot holds at most one registered filter.
type Slot struct {
	mu     sync.Mutex
	filter *aadfilter.Filter
}

// DefaultSlot is the process-wide slot used when no slot is configured.
var DefaultSlot = &Slot{}

// Get returns the registered filter, if any.
func (s *Slot) Get() (*aadfilter.Filter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter, s.filter != nil
}

// GetOrCreate returns the registered filter, or runs create and stores its
// result. created reports whether create ran and succeeded. create runs
// under the slot lock; a failed create leaves the slot empty.
func (s *Slot) GetOrCreate(create func() (*aadfilter.Filter, error)) (f *aadfilter.Filter, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter != nil {
		return s.filter, false, nil
	}

	f, err = create()
	if err != nil {
		return nil, false, err
	}
	if f == nil {
		return nil, false, ErrNilFilter
	}

	s.filter = f
	return f, true, nil
}

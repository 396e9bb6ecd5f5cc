package sync

// Sema is a counting semaphore used to guard an mm's vma list
// (mm.mm_sem in the original design) against concurrent fault handlers.
// Waiters that find the semaphore unavailable are expected to be running
// with interrupts enabled and to retry via Down's busy-wait; a single-CPU
// kernel with cooperative scheduling never blocks here for long since the
// holder always releases before yielding.
type Sema struct {
	count int32
}

// NewSema returns a semaphore initialized with the given count.
func NewSema(count int32) *Sema {
	return &Sema{count: count}
}

// Down acquires the semaphore, spinning until a unit is available.
func (s *Sema) Down() {
	var m IRQMutex
	for {
		m.Lock()
		if s.count > 0 {
			s.count--
			m.Unlock()
			return
		}
		m.Unlock()
	}
}

// TryDown attempts to acquire the semaphore without blocking.
func (s *Sema) TryDown() bool {
	var m IRQMutex
	m.Lock()
	defer m.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Up releases the semaphore.
func (s *Sema) Up() {
	var m IRQMutex
	m.Lock()
	s.count++
	m.Unlock()
}

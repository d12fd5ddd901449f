package temporal

// FrameCount is the number of physical copies a Pool keeps: one being written this frame and one
// holding the previous frame for history reads.
const FrameCount = 2

// Pool is a frame-indexed resource pool of fixed size FrameCount.
// The slot selected by the parity is written during the current frame; the other slot still holds
// what was written during the previous frame and stays intact until the parity returns to it.
//
// Data written into Current() after the k-th Advance is readable as Previous() after Advance k+1,
// and may be overwritten after Advance k+2.
type Pool[T any] struct {
	slots  [FrameCount]T
	parity uint32
}

// NewPool creates a Pool whose slots are produced by newSlot, called once per parity in order.
//
// Parameters:
//   - newSlot: creates the resource for a parity
//
// Returns:
//   - *Pool[T]: the pool, at parity 0
func NewPool[T any](newSlot func(parity uint32) T) *Pool[T] {
	p := &Pool[T]{}
	for i := range p.slots {
		p.slots[i] = newSlot(uint32(i))
	}
	return p
}

// Advance flips the parity. It is called exactly once per rendered frame.
func (p *Pool[T]) Advance() {
	p.parity = (p.parity + 1) % FrameCount
}

// Parity returns the index of the slot written during the current frame.
//
// Returns:
//   - uint32: 0 or 1
func (p *Pool[T]) Parity() uint32 {
	return p.parity
}

// Current returns the slot for the current parity.
//
// Returns:
//   - T: the current slot
func (p *Pool[T]) Current() T {
	return p.slots[p.parity]
}

// Previous returns the slot written during the previous frame.
//
// Returns:
//   - T: the previous slot
func (p *Pool[T]) Previous() T {
	return p.slots[p.previousParity()]
}

// Slot returns the slot for an explicit parity.
//
// Parameters:
//   - parity: the parity, reduced modulo FrameCount
//
// Returns:
//   - T: the slot
func (p *Pool[T]) Slot(parity uint32) T {
	return p.slots[parity%FrameCount]
}

// Set replaces the slot for the current parity.
//
// Parameters:
//   - v: the new value
func (p *Pool[T]) Set(v T) {
	p.slots[p.parity] = v
}

// Each calls fn for every slot in parity order.
//
// Parameters:
//   - fn: receives the parity and the slot
func (p *Pool[T]) Each(fn func(parity uint32, slot T)) {
	for i, s := range p.slots {
		fn(uint32(i), s)
	}
}

func (p *Pool[T]) previousParity() uint32 {
	return (p.parity + FrameCount - 1) % FrameCount
}

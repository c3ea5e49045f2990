// ABOUTME: Fixed-capacity ring of per-frame timing markers
// ABOUTME: Centralizes the index arithmetic so no call site does its own modulo

package engine

// DefaultMarkerCapacity holds half a second of history at 30Hz.
const DefaultMarkerCapacity = 15

// Marker captures one frame's cursor state: the pre-write prediction and the
// post-flip reality. Comparing the two is what exposes drift; neither call
// site alone can know both.
type Marker struct {
	PlayCursor      int64
	WriteCursor     int64
	SafeWriteCursor int64
	FramesWritten   int

	// readings taken when the write was planned
	WriteDelay int
	WriteAvail int

	// readings taken after the frame's display flip
	FlipDelay int
	FlipAvail int
}

// MarkerRing is a fixed-capacity ring of markers. The slot at the write
// position is filled across the frame and the index advances only once the
// slot is complete.
type MarkerRing struct {
	slots []Marker
	next  int
	count int
}

// NewMarkerRing creates a ring with the given capacity.
func NewMarkerRing(capacity int) *MarkerRing {
	if capacity <= 0 {
		capacity = DefaultMarkerCapacity
	}
	return &MarkerRing{slots: make([]Marker, capacity)}
}

// Capacity returns the fixed slot count.
func (r *MarkerRing) Capacity() int {
	return len(r.slots)
}

// Len returns how many completed markers the ring holds.
func (r *MarkerRing) Len() int {
	return r.count
}

// Current returns the slot being filled this frame. The slot is reset the
// first time it is handed out after an Advance.
func (r *MarkerRing) Current() *Marker {
	return &r.slots[r.next]
}

// Advance completes the current slot and moves to the next one, wrapping
// with modulo. The count of completed markers tops out one short of
// capacity because the slot at the write position is always in progress.
func (r *MarkerRing) Advance() {
	r.next = (r.next + 1) % len(r.slots)
	r.slots[r.next] = Marker{}
	if r.count < len(r.slots)-1 {
		r.count++
	}
}

// Latest returns the most recently completed marker. ok is false until the
// first frame completes.
func (r *MarkerRing) Latest() (Marker, bool) {
	if r.count == 0 {
		return Marker{}, false
	}
	idx := (r.next - 1 + len(r.slots)) % len(r.slots)
	return r.slots[idx], true
}

// Completed returns the completed markers, oldest first.
func (r *MarkerRing) Completed() []Marker {
	out := make([]Marker, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.next - r.count + i + len(r.slots)) % len(r.slots)
		out = append(out, r.slots[idx])
	}
	return out
}

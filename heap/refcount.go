package heap

// Register links a freshly constructed heap object into the allocated
// list and hands it back with refcount 1, per spec.md §3 "Lifecycle".
// Every allocation routine in the value/object packages calls this exactly
// once right after constructing its Go value.
func (h *Heap) Register(t Traceable) {
	hdr := t.Head()
	hdr.Refcount = 1
	h.link(t)
}

// IncRef increments t's refcount. A refcount already at MaxRefcount
// saturates: increments and decrements become no-ops and the object is
// only reclaimable by mark-and-sweep (spec.md §4.4).
func (h *Heap) IncRef(t Traceable) {
	if t == nil {
		return
	}
	hdr := t.Head()
	if hdr.Refcount == MaxRefcount {
		return
	}
	hdr.Refcount++
}

// DecRef decrements t's refcount. On reaching zero the object is appended
// to the refzero work list rather than freed recursively; drainRefzero
// processes the list iteratively to bound stack depth on long reference
// chains (spec.md §4.4).
func (h *Heap) DecRef(t Traceable) {
	if t == nil {
		return
	}
	hdr := t.Head()
	if hdr.Refcount == MaxRefcount {
		return
	}
	hdr.Refcount--
	if hdr.Refcount != 0 {
		return
	}

	if hdr.Finalizer != nil && hdr.Flags&FlagFinalized == 0 {
		hdr.Flags |= FlagFinalizable
	}
	h.refzeroList = append(h.refzeroList, t)

	// A driver may already be iterating refzeroList further down the call
	// stack (this DecRef was itself called from inside a finalizer or a
	// Trace-driven release). In that case we just queued work for it and
	// must not start a second, concurrent drive.
	if !h.refzeroFreeRunning {
		h.drainRefzero()
	}
}

// Requeue moves a value assignment's old and new incref/decref pair in
// the order spec.md §4.4 requires: incref the new value before decref'ing
// the old one, so a transient self-assignment (x.p = x.p) never drops the
// refcount to zero between the two operations.
func (h *Heap) Requeue(oldVal, newVal Traceable) {
	h.IncRef(newVal)
	h.DecRef(oldVal)
}

// drainRefzero iteratively processes the refzero FIFO: for each head
// object, decref its outgoing references (which may enqueue further
// heads), run its finalizer if applicable, unlink it from the allocated
// list, and free it. Re-entrant-safe via refzeroFreeRunning, which routes
// nested zero events onto the list instead of spawning another driver.
func (h *Heap) drainRefzero() {
	h.refzeroFreeRunning = true
	defer func() { h.refzeroFreeRunning = false }()

	for len(h.refzeroList) > 0 {
		t := h.refzeroList[0]
		h.refzeroList = h.refzeroList[1:]

		hdr := t.Head()
		if hdr.Refcount != 0 {
			// Resurrected (e.g. by an earlier finalizer in this same
			// drain) before we got to it; skip.
			continue
		}

		t.Trace(func(child Traceable) {
			h.DecRef(child)
		})

		if hdr.Finalizer != nil && hdr.Flags&FlagFinalized == 0 {
			hdr.Flags |= FlagFinalized
			hdr.Finalizer(t)
			if hdr.Refcount != 0 {
				// Finalizer resurrected the object by reattaching it to
				// the reachable graph; leave it on the allocated list.
				continue
			}
		}

		if hdr.Tag == TagString {
			h.strtab.remove(t.(*DukString))
		}
		h.unlink(hdr)
	}
}

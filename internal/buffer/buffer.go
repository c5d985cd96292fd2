package buffer

// Buffer accumulates a single byte sequence, refusing to grow past the limit. The
// memory is kept between uses, so after the first few lines no further allocations
// happen.
type Buffer struct {
	memory  []byte
	maxSize int
}

func New(initialSize, maxSize int) *Buffer {
	return &Buffer{
		memory:  make([]byte, 0, min(initialSize, maxSize)),
		maxSize: maxSize,
	}
}

// Append writes data, checking whether the new amount of bytes doesn't exceed the
// limit, otherwise discarding the data and returning false.
func (b *Buffer) Append(elements []byte) (ok bool) {
	if len(b.memory)+len(elements) > b.maxSize {
		return false
	}

	b.memory = append(b.memory, elements...)
	return true
}

// Limit sets a new upper bound. Already accumulated bytes are kept even if there
// are more of them than the new limit allows.
func (b *Buffer) Limit(maxSize int) {
	b.maxSize = maxSize
}

// Free returns how many bytes can still be appended.
func (b *Buffer) Free() int {
	return max(b.maxSize-len(b.memory), 0)
}

func (b *Buffer) Len() int {
	return len(b.memory)
}

// Bytes returns the accumulated data. The slice is valid until the next Clear.
func (b *Buffer) Bytes() []byte {
	return b.memory
}

// Clear resets the length, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}

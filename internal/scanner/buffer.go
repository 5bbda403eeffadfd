package scanner

import (
	"strings"
	"time"
)

// FlushKey terminates one barcode. Hardware scanners are configured to send
// a carriage return after the code.
const FlushKey = "Enter"

// resetGap distinguishes a scanner's burst input from human typing: a pause
// longer than this between keystrokes discards the partial buffer.
const resetGap = 500 * time.Millisecond

// Buffer assembles high-frequency keystrokes into complete barcodes.
// Not safe for concurrent use; each picking session owns one.
type Buffer struct {
	buf     strings.Builder
	lastKey time.Time
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Key feeds one keystroke at the given time. When the flush key arrives and
// the buffer is non-empty, the complete barcode is returned and the buffer
// cleared.
func (b *Buffer) Key(key string, at time.Time) (barcode string, complete bool) {
	if key == FlushKey {
		if b.buf.Len() == 0 {
			return "", false
		}
		barcode = b.buf.String()
		b.buf.Reset()
		return barcode, true
	}

	if !b.lastKey.IsZero() && at.Sub(b.lastKey) > resetGap {
		b.buf.Reset()
	}
	b.lastKey = at
	b.buf.WriteString(key)
	return "", false
}

// Pending returns the partial buffer contents.
func (b *Buffer) Pending() string {
	return b.buf.String()
}

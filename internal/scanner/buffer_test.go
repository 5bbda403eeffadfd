package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func feed(b *Buffer, start time.Time, gap time.Duration, keys ...string) (string, bool) {
	var barcode string
	var complete bool
	at := start
	for _, k := range keys {
		barcode, complete = b.Key(k, at)
		at = at.Add(gap)
	}
	return barcode, complete
}

func TestBufferAssemblesBarcodeOnEnter(t *testing.T) {
	b := NewBuffer()
	start := time.Now()

	barcode, complete := feed(b, start, 10*time.Millisecond, "7", "8", "9", "1", "2", FlushKey)

	assert.True(t, complete)
	assert.Equal(t, "78912", barcode)
	assert.Empty(t, b.Pending())
}

func TestBufferDiscardsAfterPause(t *testing.T) {
	b := NewBuffer()
	start := time.Now()

	// Scanner burst interrupted, then a human types one slow key.
	feed(b, start, 10*time.Millisecond, "1", "2", "3")
	barcode, complete := b.Key("4", start.Add(2*time.Second))
	assert.False(t, complete)
	assert.Empty(t, barcode)

	// Only the post-pause keystroke survives.
	barcode, complete = b.Key(FlushKey, start.Add(2*time.Second+10*time.Millisecond))
	assert.True(t, complete)
	assert.Equal(t, "4", barcode)
}

func TestBufferKeepsBurstWithinGap(t *testing.T) {
	b := NewBuffer()
	start := time.Now()

	// 400ms between keys is slow but still within the reset gap.
	barcode, complete := feed(b, start, 400*time.Millisecond, "A", "B", FlushKey)

	assert.True(t, complete)
	assert.Equal(t, "AB", barcode)
}

func TestBufferEnterOnEmptyIsNoop(t *testing.T) {
	b := NewBuffer()

	barcode, complete := b.Key(FlushKey, time.Now())

	assert.False(t, complete)
	assert.Empty(t, barcode)
}

func TestBufferResetsBetweenScans(t *testing.T) {
	b := NewBuffer()
	start := time.Now()

	first, complete := feed(b, start, time.Millisecond, "1", "1", FlushKey)
	assert.True(t, complete)
	assert.Equal(t, "11", first)

	second, complete := feed(b, start.Add(time.Second), time.Millisecond, "2", "2", FlushKey)
	assert.True(t, complete)
	assert.Equal(t, "22", second)
}

// internal/audio/framer.go
package audio

import "encoding/binary"

// Framer re-chunks little-endian S16 byte blocks of any size into frames of a
// fixed number of samples. Device callbacks rarely deliver exactly one frame.
type Framer struct {
	size    int
	pending []int16
	odd     []byte // trailing byte of an incomplete sample
}

// NewFramer returns a Framer producing frames of size samples.
func NewFramer(size int) *Framer {
	return &Framer{
		size:    size,
		pending: make([]int16, 0, size),
	}
}

// Size returns the frame length in samples.
func (f *Framer) Size() int {
	return f.size
}

// Write appends raw bytes and calls emit for every complete frame. Each frame
// passed to emit is a fresh slice the receiver may keep.
func (f *Framer) Write(data []byte, emit func(frame []int16)) {
	if len(f.odd) > 0 && len(data) > 0 {
		f.push(int16(binary.LittleEndian.Uint16([]byte{f.odd[0], data[0]})), emit)
		f.odd = f.odd[:0]
		data = data[1:]
	}

	n := len(data) / 2
	for i := 0; i < n; i++ {
		f.push(int16(binary.LittleEndian.Uint16(data[i*2:])), emit)
	}
	if len(data)%2 == 1 {
		f.odd = append(f.odd[:0], data[len(data)-1])
	}
}

func (f *Framer) push(s int16, emit func(frame []int16)) {
	f.pending = append(f.pending, s)
	if len(f.pending) < f.size {
		return
	}
	frame := make([]int16, f.size)
	copy(frame, f.pending)
	f.pending = f.pending[:0]
	emit(frame)
}

// Buffered returns the number of samples waiting for a complete frame.
func (f *Framer) Buffered() int {
	return len(f.pending)
}

// Reset drops any partial frame.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
	f.odd = f.odd[:0]
}

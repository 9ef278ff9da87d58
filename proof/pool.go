package proof

import (
	"bytes"
	"sync"
)

// encodeBuffers pools the *bytes.Buffer values ToBytesPooled uses while
// building a proof's wire encoding, so repeated calls reuse a buffer
// instead of growing a fresh one each time.
var encodeBuffers = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// ToBytesPooled behaves exactly like ToBytes, but builds the encoding
// in a pooled buffer instead of a freshly allocated byte slice. It
// exists for callers that serialize proofs repeatedly (e.g. streaming
// a sequence of operations to a remote replica) and want to amortize
// allocation.
func (p *Proof) ToBytesPooled() []byte {
	buf := encodeBuffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer encodeBuffers.Put(buf)

	var countBuf [4]byte
	count := uint32(len(p.steps))
	countBuf[0] = byte(count >> 24)
	countBuf[1] = byte(count >> 16)
	countBuf[2] = byte(count >> 8)
	countBuf[3] = byte(count)
	buf.Write(countBuf[:])

	for _, s := range p.steps {
		sb := s.ToBytes()
		var lenBuf [4]byte
		l := uint32(len(sb))
		lenBuf[0] = byte(l >> 24)
		lenBuf[1] = byte(l >> 16)
		lenBuf[2] = byte(l >> 8)
		lenBuf[3] = byte(l)
		buf.Write(lenBuf[:])
		buf.Write(sb)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

package transcoder

import "sync"

const (
	// Pool limits to prevent memory bloat
	poolMaxCap  = 64 << 10 // max pooled stream buffer
	poolInitCap = 256
)

// stream buffer pool for Encoder.Write
var streamPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, poolInitCap)
		return &buf
	},
}

func getStreamBuf() *[]byte {
	return streamPool.Get().(*[]byte)
}

func putStreamBuf(buf *[]byte) {
	if buf == nil || cap(*buf) > poolMaxCap {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	streamPool.Put(buf)
}

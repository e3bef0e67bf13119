package filter

import (
	"fmt"

	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// lzf decompresses the LZF stream format: a sequence of control bytes
// where values below 32 introduce a literal run of ctrl+1 bytes and
// anything else a back-reference of (ctrl>>5)+2 bytes, with 7 in the
// length field extended by one more byte. The third client data value
// carries the uncompressed chunk size, used as a capacity hint.
type lzf struct {
	sizeHint int
}

func newLZF(cd []uint32) Codec {
	hint := 0
	if len(cd) >= 3 {
		hint = int(cd[2])
	}
	return lzf{sizeHint: hint}
}

func (lzf) ID() uint16 { return message.FilterLZF }

func (f lzf) Decode(input []byte) ([]byte, error) {
	out := make([]byte, 0, max(f.sizeHint, len(input)))
	ip := 0
	for ip < len(input) {
		ctrl := int(input[ip])
		ip++

		if ctrl < 32 {
			n := ctrl + 1
			if ip+n > len(input) {
				return nil, fmt.Errorf("%w: lzf literal run past end of input", errs.ErrDataRead)
			}
			out = append(out, input[ip:ip+n]...)
			ip += n
			continue
		}

		length := ctrl >> 5
		if length == 7 {
			if ip >= len(input) {
				return nil, fmt.Errorf("%w: lzf length extension past end of input", errs.ErrDataRead)
			}
			length += int(input[ip])
			ip++
		}
		if ip >= len(input) {
			return nil, fmt.Errorf("%w: lzf reference offset past end of input", errs.ErrDataRead)
		}
		ref := len(out) - ((ctrl & 0x1f) << 8) - int(input[ip]) - 1
		ip++
		if ref < 0 {
			return nil, fmt.Errorf("%w: lzf back-reference before start of output", errs.ErrDataRead)
		}
		// References may overlap their own output; copy byte by byte.
		for i := 0; i < length+2; i++ {
			out = append(out, out[ref+i])
		}
	}
	return out, nil
}

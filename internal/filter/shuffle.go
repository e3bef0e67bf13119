package filter

import "github.com/seqview/hdf5/internal/message"

// shuffle undoes the byte-transpose filter: on disk all first bytes
// come before all second bytes and so on, which groups similar bytes
// for the compressor.
type shuffle struct {
	elemSize int
}

func newShuffle(cd []uint32) Codec {
	size := 1
	if len(cd) > 0 && cd[0] > 0 {
		size = int(cd[0])
	}
	return shuffle{elemSize: size}
}

func (shuffle) ID() uint16 { return message.FilterShuffle }

func (f shuffle) Decode(input []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return input, nil
	}
	n := len(input) / f.elemSize
	if n == 0 {
		return input, nil
	}
	// A trailing remainder shorter than one element passes through
	// untouched, matching the reference filter.
	out := make([]byte, len(input))
	for j := 0; j < f.elemSize; j++ {
		for i := 0; i < n; i++ {
			out[i*f.elemSize+j] = input[j*n+i]
		}
	}
	copy(out[n*f.elemSize:], input[n*f.elemSize:])
	return out, nil
}

package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// fletcher32 verifies and strips the 4-byte checksum the writer
// appended to the chunk.
type fletcher32 struct{}

func (fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: chunk shorter than its fletcher32 trailer", errs.ErrDataRead)
	}
	payload := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	if sum := cursor.Fletcher32(payload); sum != stored {
		return nil, fmt.Errorf("%w: fletcher32 mismatch: computed %08x, stored %08x",
			errs.ErrDataRead, sum, stored)
	}
	return payload, nil
}

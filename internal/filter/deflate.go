package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// deflate inflates zlib-wrapped chunk data. The compression level in
// the client data only matters for writing.
type deflate struct{}

func (deflate) ID() uint16 { return message.FilterDeflate }

func (deflate) Decode(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("%w: bad zlib stream: %v", errs.ErrDataRead, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: inflating chunk: %v", errs.ErrDataRead, err)
	}
	return out, nil
}

// Package filter undoes the per-chunk encoding pipeline: deflate and
// LZF decompression, byte unshuffling, and Fletcher-32 verification.
// Stages run in reverse of the order the pipeline message lists them,
// since that is the order the writer applied them.
package filter

import (
	"fmt"

	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// Codec decodes one pipeline stage.
type Codec interface {
	ID() uint16
	Decode(input []byte) ([]byte, error)
}

// builders maps filter IDs to codec constructors taking the stage's
// client data values.
var builders = map[uint16]func([]uint32) Codec{
	message.FilterDeflate:    func(cd []uint32) Codec { return deflate{} },
	message.FilterShuffle:    newShuffle,
	message.FilterFletcher32: func(cd []uint32) Codec { return fletcher32{} },
	message.FilterLZF:        newLZF,
}

var codecNames = map[uint16]string{
	message.FilterDeflate:    "deflate",
	message.FilterShuffle:    "shuffle",
	message.FilterFletcher32: "fletcher32",
	message.FilterSZip:       "szip",
	message.FilterNBit:       "n-bit",
	message.FilterScaleOff:   "scale-offset",
	message.FilterLZF:        "lzf",
}

// Pipeline is a compiled decode pipeline for one dataset.
type Pipeline struct {
	codecs []Codec
}

// NewPipeline compiles the filter pipeline message. A stage with no
// registered codec is an unsupported feature unless the writer marked
// it optional, in which case it is dropped.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for _, entry := range fp.Filters {
		build, ok := builders[entry.ID]
		if !ok {
			if entry.Optional() {
				p.codecs = append(p.codecs, nil)
				continue
			}
			if name, known := codecNames[entry.ID]; known {
				return nil, fmt.Errorf("%w: %s filter (ID %d)", errs.ErrUnsupportedFeature, name, entry.ID)
			}
			return nil, fmt.Errorf("%w: filter ID %d", errs.ErrUnsupportedFeature, entry.ID)
		}
		p.codecs = append(p.codecs, build(entry.ClientData))
	}
	return p, nil
}

// Empty reports whether the pipeline has no stages.
func (p *Pipeline) Empty() bool { return len(p.codecs) == 0 }

// Decode runs the pipeline backwards over one stored chunk. Bit i of
// mask skips stage i (the writer set it when that stage was bypassed
// for this chunk). expectedSize is the decoded chunk byte count; any
// other result is a data read error.
func (p *Pipeline) Decode(input []byte, mask uint32, expectedSize int) ([]byte, error) {
	data := input
	for i := len(p.codecs) - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 || p.codecs[i] == nil {
			continue
		}
		var err error
		data, err = p.codecs[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", p.codecs[i].ID(), err)
		}
	}
	if expectedSize >= 0 && len(data) != expectedSize {
		return nil, fmt.Errorf("%w: pipeline produced %d bytes, chunk holds %d",
			errs.ErrDataRead, len(data), expectedSize)
	}
	return data, nil
}

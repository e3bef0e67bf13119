package heap

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

var globalSignature = []byte("GCOL")

// Global is one global heap collection: a block of reference-counted
// objects addressed by a small integer index.
type Global struct {
	Address uint64
	objects map[uint16][]byte
}

// GlobalID locates one object in the file's global heap: the address
// of its collection plus its index inside it. Variable-length element
// payloads are stored as these.
type GlobalID struct {
	Collection uint64
	Index      uint32
}

// ParseGlobalID decodes a global heap ID: an offset-sized collection
// address followed by a 4-byte object index.
func ParseGlobalID(buf []byte, c *cursor.Cursor) (GlobalID, error) {
	osize := c.OffsetSize()
	if len(buf) < osize+4 {
		return GlobalID{}, fmt.Errorf("%w: global heap ID needs %d bytes, have %d", errs.ErrDataRead, osize+4, len(buf))
	}
	return GlobalID{
		Collection: cursor.DecodeUint(buf, osize, c.ByteOrder()),
		Index:      uint32(cursor.DecodeUint(buf[osize:], 4, c.ByteOrder())),
	}, nil
}

// ReadGlobal reads the collection at address and indexes its objects.
func ReadGlobal(c *cursor.Cursor, address uint64) (*Global, error) {
	if address == 0 || c.UndefinedOffset(address) {
		return nil, fmt.Errorf("%w: global heap collection address undefined", errs.ErrDataRead)
	}
	hc := c.At(int64(address))

	sig, err := hc.Bytes(4)
	if err != nil {
		return nil, fmt.Errorf("global heap at %d: %w", address, err)
	}
	if string(sig) != string(globalSignature) {
		return nil, fmt.Errorf("%w: global heap at %d has signature %q", errs.ErrFormat, address, sig)
	}
	version, err := hc.Uint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: global heap version %d", errs.ErrUnsupportedFeature, version)
	}
	hc.Skip(3)

	collectionSize, err := hc.Length()
	if err != nil {
		return nil, err
	}

	g := &Global{Address: address, objects: make(map[uint16][]byte)}

	headerSize := uint64(8 + c.LengthSize())
	if collectionSize < headerSize {
		return nil, fmt.Errorf("%w: global heap collection size %d", errs.ErrFormat, collectionSize)
	}
	remaining := collectionSize - headerSize

	// Objects run until index 0 (the free-space sentinel) or the end
	// of the collection. Each is padded to 8 bytes.
	objectHeader := uint64(8 + c.LengthSize())
	for remaining >= objectHeader {
		index, err := hc.Uint16()
		if err != nil {
			return nil, err
		}
		if index == 0 {
			break
		}
		if _, err := hc.Uint16(); err != nil { // reference count
			return nil, err
		}
		hc.Skip(4)
		size, err := hc.Length()
		if err != nil {
			return nil, err
		}
		data, err := hc.Bytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("global heap object %d: %w", index, err)
		}
		g.objects[index] = data

		pad := (8 - size%8) % 8
		hc.Skip(int64(pad))

		consumed := objectHeader + size + pad
		if consumed > remaining {
			break
		}
		remaining -= consumed
	}
	return g, nil
}

// Object returns the payload bytes of the object at index.
func (g *Global) Object(index uint16) ([]byte, error) {
	data, ok := g.objects[index]
	if !ok {
		return nil, fmt.Errorf("%w: global heap object %d not in collection at %d", errs.ErrDataRead, index, g.Address)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

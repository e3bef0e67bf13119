package message

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// SymbolTable is the symbol table message (class 0x0011): the root of
// an old-style group's name B-tree plus its heap of link names.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Kind() Kind { return KindSymbolTable }

func parseSymbolTable(body []byte, c *cursor.Cursor) (*SymbolTable, error) {
	osize := c.OffsetSize()
	if len(body) < 2*osize {
		return nil, fmt.Errorf("%w: symbol table message truncated (%d bytes)", errs.ErrDataRead, len(body))
	}
	return &SymbolTable{
		BTreeAddress:     cursor.DecodeUint(body, osize, c.ByteOrder()),
		LocalHeapAddress: cursor.DecodeUint(body[osize:], osize, c.ByteOrder()),
	}, nil
}

package layout

// compactReader serves elements stored inline in the object header.
type compactReader struct {
	data []byte
}

func (r *compactReader) ReadAll() ([]byte, error) {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out, nil
}

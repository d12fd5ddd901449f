package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Coalesce merges writes that target the same provider and binding with contiguous byte ranges.
// The relative order of writes to the same buffer is preserved.
//
// Parameters:
//   - writes: the writes to merge
//
// Returns:
//   - []BufferWrite: the merged writes; data of merged writes is copied into new slices
func Coalesce(writes []BufferWrite) []BufferWrite {
	out := make([]BufferWrite, 0, len(writes))
	for _, w := range writes {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Provider == w.Provider && last.Binding == w.Binding && last.Offset+uint64(len(last.Data)) == w.Offset {
				merged := make([]byte, 0, len(last.Data)+len(w.Data))
				merged = append(merged, last.Data...)
				last.Data = append(merged, w.Data...)
				continue
			}
		}
		out = append(out, w)
	}
	return out
}

package bind_group_provider

import (
	"bytes"
	"testing"
)

func TestCoalesce(t *testing.T) {
	body := NewBindGroupProvider("body/0")
	cape := NewBindGroupProvider("cape/0")

	tests := []struct {
		name   string
		writes []BufferWrite
		want   []BufferWrite
	}{
		{
			name: "contiguous writes merge",
			writes: []BufferWrite{
				{Provider: body, Binding: 0, Offset: 0, Data: []byte{1, 2}},
				{Provider: body, Binding: 0, Offset: 2, Data: []byte{3, 4}},
				{Provider: body, Binding: 0, Offset: 4, Data: []byte{5}},
			},
			want: []BufferWrite{
				{Provider: body, Binding: 0, Offset: 0, Data: []byte{1, 2, 3, 4, 5}},
			},
		},
		{
			name: "gaps and other bindings stay separate",
			writes: []BufferWrite{
				{Provider: body, Binding: 0, Offset: 0, Data: []byte{1, 2}},
				{Provider: body, Binding: 0, Offset: 8, Data: []byte{3}},
				{Provider: body, Binding: 1, Offset: 9, Data: []byte{4}},
				{Provider: cape, Binding: 1, Offset: 10, Data: []byte{5}},
			},
			want: []BufferWrite{
				{Provider: body, Binding: 0, Offset: 0, Data: []byte{1, 2}},
				{Provider: body, Binding: 0, Offset: 8, Data: []byte{3}},
				{Provider: body, Binding: 1, Offset: 9, Data: []byte{4}},
				{Provider: cape, Binding: 1, Offset: 10, Data: []byte{5}},
			},
		},
		{
			name: "order is kept across buffers",
			writes: []BufferWrite{
				{Provider: cape, Binding: 0, Offset: 0, Data: []byte{9}},
				{Provider: body, Binding: 0, Offset: 0, Data: []byte{1}},
				{Provider: body, Binding: 0, Offset: 1, Data: []byte{2}},
				{Provider: cape, Binding: 0, Offset: 1, Data: []byte{8}},
			},
			want: []BufferWrite{
				{Provider: cape, Binding: 0, Offset: 0, Data: []byte{9}},
				{Provider: body, Binding: 0, Offset: 0, Data: []byte{1, 2}},
				{Provider: cape, Binding: 0, Offset: 1, Data: []byte{8}},
			},
		},
		{
			name: "empty",
			want: []BufferWrite{},
		},
	}
	for _, tt := range tests {
		got := Coalesce(tt.writes)
		if len(got) != len(tt.want) {
			t.Errorf("Coalesce(%s) returned %d writes; expected %d", tt.name, len(got), len(tt.want))
			continue
		}
		for i := range got {
			g, w := got[i], tt.want[i]
			if g.Provider != w.Provider || g.Binding != w.Binding || g.Offset != w.Offset || !bytes.Equal(g.Data, w.Data) {
				t.Errorf("Coalesce(%s)[%d]=%s/%d@%d %v; expected %s/%d@%d %v",
					tt.name, i, g.Provider.Label(), g.Binding, g.Offset, g.Data, w.Provider.Label(), w.Binding, w.Offset, w.Data)
			}
		}
	}
}

func TestCoalesceDoesNotAliasInput(t *testing.T) {
	p := NewBindGroupProvider("body/1")
	first := []byte{1, 2}
	Coalesce([]BufferWrite{
		{Provider: p, Offset: 0, Data: first},
		{Provider: p, Offset: 2, Data: []byte{3}},
	})
	if !bytes.Equal(first, []byte{1, 2}) {
		t.Errorf("first write data=%v after Coalesce; expected [1 2]", first)
	}
}

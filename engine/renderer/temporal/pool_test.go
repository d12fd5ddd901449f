package temporal

import "testing"

func TestParityAfterAdvances(t *testing.T) {
	p := NewPool(func(parity uint32) int { return int(parity) })
	for k := 0; k < 7; k++ {
		if got := p.Parity(); got != uint32(k%2) {
			t.Errorf("Parity() after %d advances=%d; expected %d", k, got, k%2)
		}
		p.Advance()
	}
}

func TestTwoGenerationGuarantee(t *testing.T) {
	p := NewPool(func(uint32) *[]int { s := []int{}; return &s })

	write := func(v int) { *p.Current() = append((*p.Current())[:0], v) }

	// Call k writes 1 into the current slot.
	write(1)
	p.Advance()
	if got := *p.Previous(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Previous() at k+1=%v; expected [1]", got)
	}
	write(2)
	if got := *p.Previous(); got[0] != 1 {
		t.Errorf("Previous() after writing current at k+1=%v; expected [1]", got)
	}

	// At k+2 the original slot is current again and may be overwritten.
	p.Advance()
	if p.Current() != p.Slot(0) {
		t.Errorf("Current() at k+2 is not slot 0")
	}
	write(3)
	if got := *p.Previous(); got[0] != 2 {
		t.Errorf("Previous() at k+2=%v; expected [2]", got)
	}
}

func TestSlotAndEach(t *testing.T) {
	p := NewPool(func(parity uint32) string { return []string{"a", "b"}[parity] })
	if p.Slot(3) != "b" {
		t.Errorf("Slot(3)=%q; expected %q", p.Slot(3), "b")
	}
	p.Set("c")
	var seen []string
	p.Each(func(_ uint32, s string) { seen = append(seen, s) })
	if len(seen) != 2 || seen[0] != "c" || seen[1] != "b" {
		t.Errorf("Each() visited %v; expected [c b]", seen)
	}
}

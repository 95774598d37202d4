package events

import (
	"slices"
	"testing"
)

func TestFireOrder(t *testing.T) {
	b := NewBus()
	var got []int
	for i := 1; i <= 3; i++ {
		b.On(NameFrame, func(Event) { got = append(got, i) })
	}
	b.On(NamePick, func(Event) { t.Error("pick handler called for frame") })

	b.Fire(Frame{})
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("order = %v, want [1 2 3]", got)
	}
}

func TestPanicIsolation(t *testing.T) {
	b := NewBus()
	var after bool
	b.On(NameLoaded, func(Event) { panic("boom") })
	b.On(NameLoaded, func(Event) { after = true })

	b.Fire(Loaded{ModelID: 1})
	if !after {
		t.Error("handler after a panicking one should still run")
	}
}

func TestOff(t *testing.T) {
	b := NewBus()
	calls := 0
	sub := b.On(NameUnloaded, func(Event) { calls++ })
	b.On(NameUnloaded, func(Event) { calls += 10 })

	if !b.Off(sub) {
		t.Fatal("Off should report an active subscription")
	}
	if b.Off(sub) {
		t.Error("second Off should report false")
	}
	b.Fire(Unloaded{ModelID: 2})
	if calls != 10 {
		t.Errorf("calls = %d, want 10", calls)
	}
	if b.Count(NameUnloaded) != 1 {
		t.Errorf("count = %d, want 1", b.Count(NameUnloaded))
	}
}

func TestOffDuringFire(t *testing.T) {
	b := NewBus()
	var second Subscription
	calls := 0
	b.On(NameFrame, func(Event) { b.Off(second) })
	second = b.On(NameFrame, func(Event) { calls++ })

	b.Fire(Frame{})
	b.Fire(Frame{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (removal applies from the next fire)", calls)
	}
}

func TestPayloadPassing(t *testing.T) {
	b := NewBus()
	var got Pick
	b.On(NamePick, func(ev Event) { got = ev.(Pick) })

	hit := &ProductRef{ProductID: 5, ModelID: 1}
	b.Fire(Pick{Hit: hit, Pointer: Pointer{Kind: PointerUp, X: 3, Y: 4}})
	if got.Hit == nil || *got.Hit != *hit {
		t.Errorf("hit = %v", got.Hit)
	}
	if got.Pointer.X != 3 {
		t.Errorf("pointer = %+v", got.Pointer)
	}
}

func TestPointerNames(t *testing.T) {
	tests := []struct {
		kind PointerKind
		want Name
	}{
		{PointerDown, NameMouseDown},
		{PointerUp, NameMouseUp},
		{PointerMove, NameMouseMove},
		{PointerWheel, NameWheel},
	}
	for _, tt := range tests {
		if got := (Pointer{Kind: tt.kind}).EventName(); got != tt.want {
			t.Errorf("kind %d: name = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

package stream

import (
	"math"
	"testing"
)

func TestNewWindowerValidation(t *testing.T) {
	if _, err := NewWindower(0, 10); err == nil {
		t.Fatal("expected error for zero channels")
	}

	if _, err := NewWindower(1, 0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestPushAndSnapshotOrdering(t *testing.T) {
	w, err := NewWindower(1, 4)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	if err := w.Push([][]float64{{1, 2, 3}}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if w.Full() {
		t.Fatal("window reported full after 3 of 4 samples")
	}

	// Overflows the ring by two samples; 1 and 2 fall off.
	if err := w.Push([][]float64{{4, 5, 6}}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if !w.Full() || w.Len() != 4 {
		t.Fatalf("full=%v len=%d want full with 4 samples", w.Full(), w.Len())
	}

	snap := w.Snapshot(1)
	want := []float64{3, 4, 5, 6}
	for i, v := range snap.Data[0] {
		if v != want[i] {
			t.Fatalf("snapshot[%d]=%v want=%v (full=%v)", i, v, want[i], snap.Data[0])
		}
	}

	// Samples 0 and 1 dropped, so timestamps start at sample index 2.
	wantTS := []float64{2, 3, 4, 5}
	for i, ts := range snap.Timestamps {
		if ts != wantTS[i] {
			t.Fatalf("timestamp[%d]=%v want=%v", i, ts, wantTS[i])
		}
	}
}

func TestPushZeroFillsNaN(t *testing.T) {
	w, err := NewWindower(1, 3)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	if err := w.Push([][]float64{{1, math.NaN(), 2}}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	snap := w.Snapshot(250)
	for i, v := range snap.Data[0] {
		if math.IsNaN(v) {
			t.Fatalf("sample %d is NaN after push", i)
		}
	}

	if snap.Data[0][1] != 0 {
		t.Fatalf("NaN sample stored as %v, want 0", snap.Data[0][1])
	}
}

func TestPushShapeValidation(t *testing.T) {
	w, err := NewWindower(2, 4)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	if err := w.Push([][]float64{{1, 2}}); err == nil {
		t.Fatal("expected error for channel count mismatch")
	}

	if err := w.Push([][]float64{{1, 2}, {1}}); err == nil {
		t.Fatal("expected error for ragged block")
	}
}

func TestReset(t *testing.T) {
	w, err := NewWindower(1, 2)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	w.Push([][]float64{{1, 2}})
	w.Reset()

	if w.Len() != 0 || w.Full() {
		t.Fatalf("len=%d full=%v after Reset", w.Len(), w.Full())
	}

	w.Push([][]float64{{5}})

	snap := w.Snapshot(1)
	if snap.Timestamps[0] != 0 {
		t.Fatalf("timestamp after Reset=%v want=0", snap.Timestamps[0])
	}
}

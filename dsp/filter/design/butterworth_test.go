package design

import (
	"math"
	"testing"

	"github.com/neurofield/alphalink/dsp/filter/biquad"
)

func TestButterworthSectionCounts(t *testing.T) {
	cases := []struct {
		order    int
		sections int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
	}

	for _, tc := range cases {
		lp := ButterworthLP(30, tc.order, sampleRate)
		if len(lp) != tc.sections {
			t.Fatalf("order=%d LP sections=%d want=%d", tc.order, len(lp), tc.sections)
		}

		hp := ButterworthHP(1, tc.order, sampleRate)
		if len(hp) != tc.sections {
			t.Fatalf("order=%d HP sections=%d want=%d", tc.order, len(hp), tc.sections)
		}
	}

	if ButterworthLP(30, 0, sampleRate) != nil {
		t.Fatal("order=0 should yield nil")
	}
}

func TestButterworthCutoffIsMinus3dB(t *testing.T) {
	for _, order := range []int{2, 3, 4} {
		chain := biquad.NewChain(ButterworthLP(30, order, sampleRate))

		db := chain.MagnitudeDB(30, sampleRate)
		if math.Abs(db-(-3.01)) > 0.1 {
			t.Fatalf("order=%d cutoff response=%v dB, want ~-3.01", order, db)
		}
	}
}

func TestButterworthBandCombinesPasses(t *testing.T) {
	sections := ButterworthBand(1, 40, 3, sampleRate)
	if len(sections) != 4 {
		t.Fatalf("band sections=%d want=4", len(sections))
	}

	chain := biquad.NewChain(sections)

	// Mid-band essentially flat, both edges rolled off.
	mid := chain.MagnitudeDB(10, sampleRate)
	if math.Abs(mid) > 0.5 {
		t.Fatalf("mid-band gain=%v dB, want ~0", mid)
	}

	low := chain.MagnitudeDB(0.1, sampleRate)
	if low > -30 {
		t.Fatalf("sub-band gain=%v dB, want strong rejection", low)
	}

	high := chain.MagnitudeDB(110, sampleRate)
	if high > -25 {
		t.Fatalf("super-band gain=%v dB, want strong rejection", high)
	}
}

func TestButterworthHighOrderRollsOffFaster(t *testing.T) {
	second := biquad.NewChain(ButterworthLP(30, 2, sampleRate))

	fourth := biquad.NewChain(ButterworthLP(30, 4, sampleRate))
	if fourth.MagnitudeDB(60, sampleRate) >= second.MagnitudeDB(60, sampleRate) {
		t.Fatal("expected steeper rolloff for higher order")
	}
}

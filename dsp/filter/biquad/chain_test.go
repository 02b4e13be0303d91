package biquad

import (
	"math"
	"testing"
)

func TestChainCascadeOrder(t *testing.T) {
	coeffs := []Coefficients{
		{B0: 0.5},
		{B0: 0.5},
	}

	c := NewChain(coeffs)
	if c.NumSections() != 2 || c.Order() != 4 {
		t.Fatalf("sections=%d order=%d", c.NumSections(), c.Order())
	}

	if y := c.ProcessSample(4); math.Abs(y-1) > 1e-12 {
		t.Fatalf("cascade output=%v want=1", y)
	}
}

func TestChainGain(t *testing.T) {
	c := NewChain([]Coefficients{identity}, WithGain(2))
	if c.Gain() != 2 {
		t.Fatalf("gain=%v want=2", c.Gain())
	}

	if y := c.ProcessSample(3); math.Abs(y-6) > 1e-12 {
		t.Fatalf("gained output=%v want=6", y)
	}

	buf := []float64{1, 2}

	c.Reset()
	c.ProcessBlock(buf)

	if math.Abs(buf[0]-2) > 1e-12 || math.Abs(buf[1]-4) > 1e-12 {
		t.Fatalf("gained block=%v", buf)
	}
}

func TestChainBlockMatchesSampleWise(t *testing.T) {
	coeffs := []Coefficients{
		{B0: 0.2, B1: 0.3, A1: -0.5},
		{B0: 0.7, B2: 0.1, A2: 0.2},
	}

	sampleWise := NewChain(coeffs)
	blockWise := NewChain(coeffs)

	in := make([]float64, 100)
	for i := range in {
		in[i] = math.Cos(0.07 * float64(i))
	}

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = sampleWise.ProcessSample(x)
	}

	got := append([]float64(nil), in...)
	blockWise.ProcessBlock(got)

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("block[%d]=%v want=%v", i, got[i], want[i])
		}
	}
}

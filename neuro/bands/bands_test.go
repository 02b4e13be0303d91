package bands

import (
	"math"
	"testing"

	"github.com/neurofield/alphalink/dsp/welch"
)

func sine(freqHz float64, samples int) []float64 {
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / 250
	for i := range out {
		out[i] = math.Sin(step * float64(i))
	}
	return out
}

func TestBandEdgesAreContiguous(t *testing.T) {
	for i := 1; i < len(All); i++ {
		if All[i].Lo != All[i-1].Hi {
			t.Fatalf("bands %s and %s are not contiguous", All[i-1].Name, All[i].Name)
		}
	}

	if Alpha.Width() != 4 {
		t.Fatalf("alpha width=%v want=4", Alpha.Width())
	}
}

func TestByName(t *testing.T) {
	b, err := ByName("alpha")
	if err != nil || b != Alpha {
		t.Fatalf("ByName(alpha)=%+v err=%v", b, err)
	}

	if _, err := ByName("mu"); err == nil {
		t.Fatal("expected error for unknown band")
	}
}

func TestExtractAlphaToneDominates(t *testing.T) {
	psd, err := welch.Estimate(sine(10, 2500), welch.Config{SampleRate: 250, SegmentLength: 256})
	if err != nil {
		t.Fatalf("welch error: %v", err)
	}

	p, err := Extract(psd)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if p.Alpha <= p.Delta || p.Alpha <= p.Theta || p.Alpha <= p.Beta || p.Alpha <= p.Gamma {
		t.Fatalf("alpha does not dominate: %+v", p)
	}

	if rel := p.RelativeAlpha(); rel < 0.9 {
		t.Fatalf("relative alpha=%v, want > 0.9 for a pure alpha tone", rel)
	}
}

func TestRelativeAlphaZeroTotal(t *testing.T) {
	if rel := (Powers{}).RelativeAlpha(); rel != 0 {
		t.Fatalf("relative alpha of empty powers=%v want=0", rel)
	}
}

func TestBandAverageTracksTone(t *testing.T) {
	psd, err := welch.Estimate(sine(20, 2500), welch.Config{SampleRate: 250, SegmentLength: 256})
	if err != nil {
		t.Fatalf("welch error: %v", err)
	}

	beta, err := Beta.Average(psd)
	if err != nil {
		t.Fatalf("Average error: %v", err)
	}

	alpha, err := Alpha.Average(psd)
	if err != nil {
		t.Fatalf("Average error: %v", err)
	}

	if beta <= alpha {
		t.Fatalf("20 Hz tone: beta=%v alpha=%v, expected beta to dominate", beta, alpha)
	}
}

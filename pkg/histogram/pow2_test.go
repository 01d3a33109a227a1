package histogram

import "testing"

func TestBucketZero(t *testing.T) {
	if b := bucket(0); b != 0 {
		t.Errorf("bucket(0) = %d, want 0", b)
	}
}

func TestBucketPowersOfTwo(t *testing.T) {
	cases := []struct {
		ns   uint64
		want int
	}{
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{1023, 9},
		{1024, 10},
	}
	for _, c := range cases {
		if got := bucket(c.ns); got != c.want {
			t.Errorf("bucket(%d) = %d, want %d", c.ns, got, c.want)
		}
	}
}

func TestPercentileEmpty(t *testing.T) {
	var h Pow2
	if p := h.Percentile(0.5); p != 0 {
		t.Errorf("Percentile on empty histogram = %d, want 0", p)
	}
}

func TestPercentileMonotonic(t *testing.T) {
	var h Pow2
	for i := 1; i <= 100; i++ {
		h.Add(uint64(i) * 1000)
	}

	p50 := h.Percentile(0.5)
	p99 := h.Percentile(0.99)
	if p99 < p50 {
		t.Errorf("p99 (%d) should be >= p50 (%d)", p99, p50)
	}
}

func TestPercentileIsUpperBound(t *testing.T) {
	var h Pow2
	h.Add(100)
	h.Add(100)
	h.Add(100)

	got := h.Percentile(1.0)
	if got < 100 {
		t.Errorf("Percentile estimate %d must be >= the largest sample 100", got)
	}
}

func TestCountTracksAdds(t *testing.T) {
	var h Pow2
	for i := 0; i < 5; i++ {
		h.Add(uint64(i))
	}
	if h.Count() != 5 {
		t.Errorf("Count() = %d, want 5", h.Count())
	}
}

func TestPercentileClampsOutOfRangeP(t *testing.T) {
	var h Pow2
	h.Add(10)
	h.Add(1000)

	if h.Percentile(-1) != h.Percentile(0) {
		t.Errorf("negative p should clamp to 0")
	}
	if h.Percentile(5) != h.Percentile(1) {
		t.Errorf("p>1 should clamp to 1")
	}
}

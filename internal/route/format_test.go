package route

import "testing"

func TestFormatDistance(t *testing.T) {
	cases := map[float64]string{
		0:     "0 m",
		849.6: "850 m",
		1000:  "1.0 km",
		2450:  "2.5 km",
		-5:    "0 m",
	}
	for in, want := range cases {
		if got := FormatDistance(in); got != want {
			t.Fatalf("FormatDistance(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{
		0:    "0 min",
		42.4: "42 min",
		60:   "1h 00m",
		65:   "1h 05m",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

package feed

import "testing"

func TestParseFixed(t *testing.T) {
	cases := []struct {
		in   string
		dp   uint
		want int64
		ok   bool
	}{
		{"123.45", 2, 12345, true},
		{"123.4", 2, 12340, true},
		{"123", 2, 12300, true},
		{"0.01", 2, 1, true},
		{"12.345", 3, 12345, true},
		{"12.3", 3, 12300, true},
		{"-123.45", 2, -12345, true},
		{"0", 2, 0, true},
		{"0.00", 2, 0, true},
		// Extra fractional digits truncate.
		{"1.2345", 2, 123, true},
		{"67890.12", 0, 67890, true},
		{"", 2, 0, false},
		{"-", 2, 0, false},
		{".", 2, 0, false},
		{".5", 2, 0, false},
		{"12.", 2, 0, false},
		{"1.2.3", 2, 0, false},
		{"12a", 2, 0, false},
		{"1e5", 2, 0, false},
		{"1.5", 99, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseFixed(tc.in, tc.dp)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseFixed(%q, %d) = %d,%v, want %d,%v", tc.in, tc.dp, got, ok, tc.want, tc.ok)
		}
	}
}

func BenchmarkParseFixed(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseFixed("64231.57", 2)
	}
}

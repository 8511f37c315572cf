package topology

import "testing"

func TestParseGUID(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"0002:c903:00a1:b2c3", 0x0002c90300a1b2c3, true},
		{"0002:C903:00A1:B2C3", 0x0002c90300a1b2c3, true},
		{"0x0002c90300a1b2c3", 0x0002c90300a1b2c3, true},
		{"0x2", 2, true},
		{"0002c90300a1b2c3", 0x0002c90300a1b2c3, true},
		{"", 0, false},
		{"0x", 0, false},
		{"0x10002c90300a1b2c3", 0, false},
		{"002:c903:00a1:b2c3", 0, false},
		{"0002:c903:00a1:b2cg", 0, false},
		{"0002c90300a1b2c", 0, false},
		{"node001", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseGUID(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseGUID(%q): got err=%v, want ok=%t", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGUID(%q): got %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestGUIDRoundtrips(t *testing.T) {
	for _, g := range []uint64{0, 1, 0x0002c90300a1b2c3, ^uint64(0)} {
		s := FormatGUID(g)
		got, err := ParseGUID(s)
		if err != nil {
			t.Errorf("%#x: %v", g, err)
			continue
		}
		if got != g {
			t.Errorf("%s: got %#x, want %#x", s, got, g)
		}
	}
	if s := FormatGUID(0x0002c90300a1b2c3); s != "0002:c903:00a1:b2c3" {
		t.Errorf("got %s, want 0002:c903:00a1:b2c3", s)
	}
}

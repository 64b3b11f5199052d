package access

import "testing"

func TestAccessLevelRoundTrip(t *testing.T) {
	for _, l := range []AccessLevel{NoAccess, ReadOnlyAccess, ReadWriteAccess, AdminAccess} {
		if out := ParseAccessLevel(l.String()); out != l {
			t.Errorf("ParseAccessLevel(%q) => %d, want %d", l.String(), out, l)
		}
	}
}

func TestParseAccessLevelUnknown(t *testing.T) {
	for _, s := range []string{"", "foo", "unknown"} {
		if out := ParseAccessLevel(s); out != -1 {
			t.Errorf("ParseAccessLevel(%q) => %d, want -1", s, out)
		}
	}
}

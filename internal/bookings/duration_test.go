package bookings

import "testing"

func TestIsValidTimeDuration(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		hours float64
		want  bool
	}{
		{"overnight wrap", "22:00", "02:00", 4, true},
		{"too short", "09:00", "12:00", 4, false},
		{"exact same day", "09:00", "13:00", 4, true},
		{"half hour", "09:00", "09:30", 0.5, true},
		{"equal times never match", "09:00", "09:00", 24, false},
		{"missing start", "", "12:00", 4, true},
		{"missing end", "09:00", "", 4, true},
		{"missing hours", "09:00", "12:00", 0, true},
		{"all missing", "", "", 0, true},
		{"malformed start", "9am", "12:00", 3, false},
		{"malformed end", "09:00", "12:xx", 3, false},
		{"out of range hour", "25:00", "02:00", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTimeDuration(tt.start, tt.end, tt.hours); got != tt.want {
				t.Fatalf("IsValidTimeDuration(%q, %q, %v) = %v, want %v", tt.start, tt.end, tt.hours, got, tt.want)
			}
		})
	}
}

func TestClockMinutes(t *testing.T) {
	got, err := ClockMinutes("07:45")
	if err != nil {
		t.Fatalf("ClockMinutes() error = %v", err)
	}
	if got != 465 {
		t.Fatalf("ClockMinutes() = %d, want 465", got)
	}
	for _, bad := range []string{"", "0745", "07:60", "-1:00", "ab:cd"} {
		if _, err := ClockMinutes(bad); err == nil {
			t.Fatalf("ClockMinutes(%q) expected error", bad)
		}
	}
}

func TestTimeSlot(t *testing.T) {
	if got := TimeSlot("22:00", "02:00"); got != "22:00 - 02:00" {
		t.Fatalf("TimeSlot() = %q", got)
	}
}

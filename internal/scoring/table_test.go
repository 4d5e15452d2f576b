package scoring

import "testing"

func TestPointsFor(t *testing.T) {
	table := NewTable(map[string]int{
		"APEL":   20,
		"pisang": 15,
	}, 10)

	tests := []struct {
		code string
		want int
	}{
		{"APEL", 20},
		{"apel", 20},
		{"Apel", 20},
		{"PISANG", 15}, // table keys are normalized too
		{"KIWI", 10},   // unmapped falls back to default
		{"", 10},
		{"  apel  ", 20},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := table.PointsFor(tt.code); got != tt.want {
				t.Errorf("PointsFor(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"apel", "APEL"},
		{" apel ", "APEL"},
		{"APEL", "APEL"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmptyTable(t *testing.T) {
	table := NewTable(nil, 5)
	if got := table.PointsFor("ANYTHING"); got != 5 {
		t.Errorf("PointsFor on empty table = %d, want default 5", got)
	}
	if got := table.Default(); got != 5 {
		t.Errorf("Default() = %d, want 5", got)
	}
}

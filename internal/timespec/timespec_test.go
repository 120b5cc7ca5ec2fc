package timespec

import (
	"errors"
	"testing"
	"time"
)

func TestParseAcceptedForms(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"09:00", TimeOfDay{9, 0}},
		{"9:05", TimeOfDay{9, 5}},
		{"21:30", TimeOfDay{21, 30}},
		{"08:15:30", TimeOfDay{8, 15}},
		{"9:00 AM", TimeOfDay{9, 0}},
		{"9:00AM", TimeOfDay{9, 0}},
		{"9:00 pm", TimeOfDay{21, 0}},
		{"12:30 AM", TimeOfDay{0, 30}},
		{"12:00 PM", TimeOfDay{12, 0}},
		{"  07:45  ", TimeOfDay{7, 45}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "noon", "25:00", "9", "09-00", "9:60"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 1, 30, 59} {
			orig := TimeOfDay{Hour: hour, Minute: minute}
			got, err := Parse(orig.String())
			if err != nil {
				t.Fatalf("Parse(%q): %v", orig.String(), err)
			}
			if got != orig {
				t.Fatalf("round trip of %v produced %v", orig, got)
			}
		}
	}
}

func TestParseListSeparators(t *testing.T) {
	got, err := ParseList("09:00, 1:30 PM and 21:00")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	want := []TimeOfDay{{9, 0}, {13, 30}, {21, 0}}
	if len(got) != len(want) {
		t.Fatalf("ParseList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParseList[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseListDeduplicatesAndSorts(t *testing.T) {
	got, err := ParseList("21:00, 9:00 AM, 09:00")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicates collapsed, got %v", got)
	}
	if !got[0].Before(got[1]) {
		t.Fatalf("expected ascending order, got %v", got)
	}
}

func TestParseListPartialFailure(t *testing.T) {
	got, err := ParseList("09:00, bogus and 21:00, also-bad")
	if err == nil {
		t.Fatal("expected a batch error")
	}
	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("expected *BatchError, got %T", err)
	}
	tokens := batch.Tokens()
	if len(tokens) != 2 || tokens[0] != "bogus" || tokens[1] != "also-bad" {
		t.Fatalf("unexpected invalid tokens %v", tokens)
	}
	// Valid entries survive alongside the error.
	if len(got) != 2 || got[0] != (TimeOfDay{9, 0}) || got[1] != (TimeOfDay{21, 0}) {
		t.Fatalf("expected valid entries to survive, got %v", got)
	}
}

func TestParseEntriesExpandsNestedLists(t *testing.T) {
	got, err := ParseEntries([]string{"09:00 and 13:00", "21:00"})
	if err != nil {
		t.Fatalf("ParseEntries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 times, got %v", got)
	}
}

func TestAtCombinesDateAndLocation(t *testing.T) {
	loc := time.FixedZone("PKT", 5*3600)
	date := time.Date(2024, 1, 10, 23, 59, 0, 0, loc)
	got := TimeOfDay{9, 30}.At(date, loc)
	want := time.Date(2024, 1, 10, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("At = %v, want %v", got, want)
	}
}

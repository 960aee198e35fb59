package loads

import (
	"fmt"
	"testing"
)

func TestClassifyValues(t *testing.T) {
	states := []TriState{Yes, No, Unknown}

	t.Run("on_time_wins", func(t *testing.T) {
		for _, ex := range states {
			for _, status := range []string{"", "LATE OTHER", "late carrier"} {
				if got := ClassifyValues(Yes, ex, status); got != BucketOnTime {
					t.Errorf("ClassifyValues(Yes, %v, %q) = %v, want On Time", ex, status, got)
				}
			}
		}
	})

	t.Run("late_with_exception", func(t *testing.T) {
		if got := ClassifyValues(No, Yes, "ON TIME"); got != BucketLateOther {
			t.Errorf("got %v, want Late Other", got)
		}
	})

	t.Run("late_defaults_to_carrier", func(t *testing.T) {
		for _, ex := range []TriState{No, Unknown} {
			if got := ClassifyValues(No, ex, "late other"); got != BucketLateCarrier {
				t.Errorf("ClassifyValues(No, %v) = %v, want Late Carrier", ex, got)
			}
		}
	})
}

func TestClassifyStatusText(t *testing.T) {
	tests := []struct {
		text string
		want Bucket
	}{
		{"On Time", BucketOnTime},
		{"  on-time ", BucketOnTime},
		{"DELIVERED ON TIME", BucketOnTime},
		{"Late - Other", BucketLateOther},
		{"late carrier", BucketLateCarrier},
		{"LATE", BucketUnknown},
		{"", BucketUnknown},
		{"pending", BucketUnknown},
		// ON and TIME are substrings, so this still reads as on time.
		{"late carrier, second time", BucketOnTime},
	}

	for _, tt := range tests {
		if got := ClassifyStatusText(tt.text); got != tt.want {
			t.Errorf("ClassifyStatusText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifyUsesStatusOnlyWhenOnTimeUnknown(t *testing.T) {
	r := Row{OnTime: TextCell("?"), Exception: CheckboxCell(true), StatusText: "late carrier"}
	if got := Classify(r); got != BucketLateCarrier {
		t.Errorf("Classify() = %v, want Late Carrier", got)
	}

	r.OnTime = SelectCell("", "No")
	if got := Classify(r); got != BucketLateOther {
		t.Errorf("Classify() = %v, want Late Other", got)
	}
}

func TestSummarize(t *testing.T) {
	var rows []Row
	for i := range 6 {
		rows = append(rows, Row{ID: int64(i), OnTime: CheckboxCell(true)})
	}
	for i := range 2 {
		rows = append(rows, Row{ID: int64(10 + i), OnTime: TextCell("NO"), Exception: CheckboxCell(true)})
	}
	for i := range 2 {
		rows = append(rows, Row{ID: int64(20 + i), OnTime: TextCell("NO"), Exception: CheckboxCell(false)})
	}

	s := Summarize(rows)

	want := Counts{OnTime: 6, LateOther: 2, LateCarrier: 2}
	if s.Counts != want {
		t.Fatalf("Counts = %+v, want %+v", s.Counts, want)
	}
	for b, pct := range map[Bucket]int{BucketOnTime: 60, BucketLateCarrier: 20, BucketLateOther: 20} {
		if s.Percents[b] != pct {
			t.Errorf("Percents[%v] = %d, want %d", b, s.Percents[b], pct)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		counts Counts
		want   [3]int
	}{
		{Counts{}, [3]int{0, 0, 0}},
		{Counts{Unknown: 7}, [3]int{0, 0, 0}},
		{Counts{OnTime: 1, LateCarrier: 1, LateOther: 1}, [3]int{33, 33, 33}},
		{Counts{OnTime: 1, LateCarrier: 2}, [3]int{33, 67, 0}},
		{Counts{OnTime: 1, LateOther: 1, Unknown: 100}, [3]int{50, 0, 50}},
		{Counts{OnTime: 1, LateCarrier: 7}, [3]int{13, 88, 0}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v", tt.counts), func(t *testing.T) {
			got := [3]int{
				tt.counts.Percent(BucketOnTime),
				tt.counts.Percent(BucketLateCarrier),
				tt.counts.Percent(BucketLateOther),
			}
			if got != tt.want {
				t.Errorf("percents = %v, want %v", got, tt.want)
			}
			if tt.counts.Percent(BucketUnknown) != 0 {
				t.Error("unknown bucket should never carry a percentage")
			}
			if tt.counts.Unknown == 0 && tt.counts.Tracked() > 0 {
				sum := got[0] + got[1] + got[2]
				if sum < 99 || sum > 101 {
					t.Errorf("percent sum = %d, want 100 within rounding", sum)
				}
			}
		})
	}
}

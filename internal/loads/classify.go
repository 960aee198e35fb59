package loads

import (
	"math"
	"strings"
)

// Bucket is the outcome a row is counted under.
type Bucket int

// Buckets in summary order.
const (
	BucketUnknown Bucket = iota
	BucketOnTime
	BucketLateCarrier
	BucketLateOther
)

func (b Bucket) String() string {
	switch b {
	case BucketOnTime:
		return "On Time"
	case BucketLateCarrier:
		return "Late Carrier"
	case BucketLateOther:
		return "Late Other"
	default:
		return "Unknown"
	}
}

// TrackedBuckets are the buckets that make up the percentage denominator.
var TrackedBuckets = []Bucket{BucketOnTime, BucketLateCarrier, BucketLateOther}

// Classify assigns a row to a bucket. The on-time flag wins over
// everything; an unknown flag falls back to the status text.
func Classify(r Row) Bucket {
	return ClassifyValues(ParseYesNo(r.OnTime), ParseYesNo(r.Exception), r.StatusText)
}

// ClassifyValues is Classify over already parsed values.
func ClassifyValues(onTime, exception TriState, statusText string) Bucket {
	switch onTime {
	case Yes:
		return BucketOnTime
	case No:
		if exception == Yes {
			return BucketLateOther
		}
		return BucketLateCarrier
	}
	return ClassifyStatusText(statusText)
}

// ClassifyStatusText applies the keyword rules to free status text.
// Rule order matters: "ON TIME" is tested before the late variants.
func ClassifyStatusText(text string) Bucket {
	t := Normalize(text)
	switch {
	case strings.Contains(t, "ON") && strings.Contains(t, "TIME"):
		return BucketOnTime
	case strings.Contains(t, "LATE") && strings.Contains(t, "OTHER"):
		return BucketLateOther
	case strings.Contains(t, "LATE") && strings.Contains(t, "CARRIER"):
		return BucketLateCarrier
	default:
		return BucketUnknown
	}
}

// Counts holds the number of rows per bucket.
type Counts struct {
	OnTime      int
	LateCarrier int
	LateOther   int
	Unknown     int
}

// Add counts one row in bucket b.
func (c *Counts) Add(b Bucket) {
	switch b {
	case BucketOnTime:
		c.OnTime++
	case BucketLateCarrier:
		c.LateCarrier++
	case BucketLateOther:
		c.LateOther++
	default:
		c.Unknown++
	}
}

// Of returns the count for bucket b.
func (c Counts) Of(b Bucket) int {
	switch b {
	case BucketOnTime:
		return c.OnTime
	case BucketLateCarrier:
		return c.LateCarrier
	case BucketLateOther:
		return c.LateOther
	default:
		return c.Unknown
	}
}

// Tracked is the percentage denominator. Unknown rows are excluded.
func (c Counts) Tracked() int {
	return c.OnTime + c.LateCarrier + c.LateOther
}

// Rows is the total number of rows counted, unknown included.
func (c Counts) Rows() int {
	return c.Tracked() + c.Unknown
}

// Percent returns the rounded share of bucket b among tracked rows,
// or 0 when nothing is tracked.
func (c Counts) Percent(b Bucket) int {
	total := c.Tracked()
	if total == 0 || b == BucketUnknown {
		return 0
	}
	return int(math.Round(100 * float64(c.Of(b)) / float64(total)))
}

// Summary is the derived status box content.
type Summary struct {
	Counts
	Percents map[Bucket]int
}

// Summarize classifies rows and computes the summary from scratch.
func Summarize(rows []Row) Summary {
	var c Counts
	for _, r := range rows {
		c.Add(Classify(r))
	}
	s := Summary{Counts: c, Percents: make(map[Bucket]int, len(TrackedBuckets))}
	for _, b := range TrackedBuckets {
		s.Percents[b] = c.Percent(b)
	}
	return s
}

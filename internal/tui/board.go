package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// statusBoard is the status box above the table.
type statusBoard struct {
	summary loads.Summary
	updates int
}

// ShowSummary records s for the next render.
func (b *statusBoard) ShowSummary(s loads.Summary) error {
	b.summary = s
	b.updates++
	return nil
}

func bucketStyle(bk loads.Bucket) lipgloss.Style {
	switch bk {
	case loads.BucketOnTime:
		return OnTimeStyle
	case loads.BucketLateCarrier:
		return LateCarrierStyle
	case loads.BucketLateOther:
		return LateOtherStyle
	default:
		return MutedTextStyle
	}
}

// View renders counts and percentages per bucket.
func (b *statusBoard) View() string {
	s := b.summary
	parts := make([]string, 0, len(loads.TrackedBuckets)+1)
	for _, bk := range loads.TrackedBuckets {
		parts = append(parts, bucketStyle(bk).Render(
			fmt.Sprintf("%s %d (%d%%)", bk, s.Of(bk), s.Percents[bk])))
	}
	if s.Unknown > 0 {
		parts = append(parts, MutedTextStyle.Render(fmt.Sprintf("Unknown %d", s.Unknown)))
	}
	return BoxStyle.Render(strings.Join(parts, "   "))
}

package pdfdocx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLine(top, size float64) *TextLine {
	return &TextLine{Top: top, Spans: []Span{{Text: "text", Size: size}}}
}

func TestSegmentRule_Step(t *testing.T) {
	rule := DefaultSegmentRule()
	open := SegmentState{LastTop: 50, LastAvgFontSize: 12, Open: true}

	tests := []struct {
		name     string
		state    SegmentState
		top      float64
		avg      float64
		expected BreakReason
	}{
		{"no open paragraph", SegmentState{}, 50, 12, BreakNoOpenParagraph},
		{"small gap continues", open, 55, 12, Continue},
		{"gap at threshold continues", open, 65, 12, Continue},
		{"large gap breaks", open, 100, 12, BreakVerticalGap},
		{"upward move continues", open, 20, 12, Continue},
		{"size change at threshold continues", open, 60, 14, Continue},
		{"size increase breaks", open, 60, 14.5, BreakFontSizeChange},
		{"size decrease breaks", open, 60, 9, BreakFontSizeChange},
		{"gap wins over size", open, 100, 20, BreakVerticalGap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, next := rule.Step(tt.state, tt.top, tt.avg)
			assert.Equal(t, tt.expected, reason, reason.String())
			assert.Equal(t, SegmentState{LastTop: tt.top, LastAvgFontSize: tt.avg, Open: true}, next)
		})
	}
}

func TestSegmentItems_GapSplitsParagraphs(t *testing.T) {
	segments := DefaultSegmentRule().SegmentItems([]ContentItem{
		textLine(50, 12),
		textLine(100, 12),
	})

	require.Len(t, segments, 2)
	assert.Len(t, segments[0].Lines, 1)
	assert.Len(t, segments[1].Lines, 1)
}

func TestSegmentItems_CloseLinesJoin(t *testing.T) {
	segments := DefaultSegmentRule().SegmentItems([]ContentItem{
		textLine(50, 12),
		textLine(55, 12),
	})

	require.Len(t, segments, 1)
	assert.Len(t, segments[0].Lines, 2)
}

func TestSegmentItems_FontSizeChangeSplits(t *testing.T) {
	segments := DefaultSegmentRule().SegmentItems([]ContentItem{
		textLine(50, 24),
		textLine(60, 11),
		textLine(72, 11),
	})

	require.Len(t, segments, 2)
	assert.Len(t, segments[0].Lines, 1)
	assert.Len(t, segments[1].Lines, 2)
}

func TestSegmentItems_ImageClosesParagraph(t *testing.T) {
	image := &ImageItem{Top: 58}
	segments := DefaultSegmentRule().SegmentItems([]ContentItem{
		textLine(50, 12),
		image,
		textLine(60, 12),
	})

	require.Len(t, segments, 3)
	assert.Len(t, segments[0].Lines, 1)
	assert.Same(t, image, segments[1].Image)
	assert.Empty(t, segments[1].Lines)
	assert.Len(t, segments[2].Lines, 1)
}

func TestSegmentItems_LineWithoutSpansUsesDefaultSize(t *testing.T) {
	segments := DefaultSegmentRule().SegmentItems([]ContentItem{
		textLine(50, DefaultFontSize),
		&TextLine{Top: 55},
	})

	require.Len(t, segments, 1)
}

func TestSegmentItems_CustomThresholds(t *testing.T) {
	rule := SegmentRule{VerticalGap: 30, FontSizeDelta: 5}
	segments := rule.SegmentItems([]ContentItem{
		textLine(50, 12),
		textLine(75, 15),
	})

	assert.Len(t, segments, 1)
}

func TestSegmentItems_Deterministic(t *testing.T) {
	items := []ContentItem{
		textLine(10, 12),
		textLine(20, 12),
		textLine(60, 12),
		&ImageItem{Top: 80},
		textLine(90, 18),
		textLine(100, 12),
	}
	rule := DefaultSegmentRule()

	first := rule.SegmentItems(items)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, rule.SegmentItems(items))
	}
}

func TestSegmentItems_Empty(t *testing.T) {
	assert.Empty(t, DefaultSegmentRule().SegmentItems(nil))
}

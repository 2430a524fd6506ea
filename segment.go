package pdfdocx

import "math"

// Paragraph segmentation thresholds, in points.
const (
	DefaultVerticalGapThreshold = 15.0
	DefaultFontSizeThreshold    = 2.0
	DefaultFontSize             = 11.0
)

// SegmentRule holds the thresholds for paragraph segmentation.
type SegmentRule struct {
	VerticalGap   float64 // A larger drop in top starts a new paragraph
	FontSizeDelta float64 // A larger change in average size starts a new paragraph
}

// DefaultSegmentRule returns the thresholds used by the converter.
func DefaultSegmentRule() SegmentRule {
	return SegmentRule{
		VerticalGap:   DefaultVerticalGapThreshold,
		FontSizeDelta: DefaultFontSizeThreshold,
	}
}

// BreakReason explains a paragraph boundary decision.
type BreakReason int

const (
	Continue BreakReason = iota
	BreakNoOpenParagraph
	BreakVerticalGap
	BreakFontSizeChange
)

func (r BreakReason) String() string {
	switch r {
	case Continue:
		return "continue"
	case BreakNoOpenParagraph:
		return "no-open-paragraph"
	case BreakVerticalGap:
		return "vertical-gap"
	case BreakFontSizeChange:
		return "font-size-change"
	}
	return "unknown"
}

// NewParagraph reports whether the reason starts a new paragraph.
func (r BreakReason) NewParagraph() bool {
	return r != Continue
}

// SegmentState is the state carried between consecutive lines.
type SegmentState struct {
	LastTop         float64
	LastAvgFontSize float64
	Open            bool
}

// Step decides whether a line at top with the given average font size starts
// a new paragraph and returns the state for the next line.
func (r SegmentRule) Step(state SegmentState, top, avgFontSize float64) (BreakReason, SegmentState) {
	reason := Continue
	switch {
	case !state.Open:
		reason = BreakNoOpenParagraph
	case top-state.LastTop > r.VerticalGap:
		reason = BreakVerticalGap
	case math.Abs(avgFontSize-state.LastAvgFontSize) > r.FontSizeDelta:
		reason = BreakFontSizeChange
	}

	return reason, SegmentState{
		LastTop:         top,
		LastAvgFontSize: avgFontSize,
		Open:            true,
	}
}

// Reset closes the open paragraph after an image at top.
func (r SegmentRule) Reset(state SegmentState, top float64) SegmentState {
	state.Open = false
	state.LastTop = top
	return state
}

// Segment is one emission unit of a page: either a paragraph of text lines or
// a single image.
type Segment struct {
	Lines []*TextLine
	Image *ImageItem
}

// SegmentItems folds the sequenced items of a page into paragraphs, placing
// each image in its own segment. Items must already be in reading order.
func (r SegmentRule) SegmentItems(items []ContentItem) []Segment {
	var segments []Segment
	var state SegmentState

	for _, item := range items {
		switch it := item.(type) {
		case *TextLine:
			var reason BreakReason
			reason, state = r.Step(state, it.Top, it.AvgFontSize())
			if reason.NewParagraph() {
				segments = append(segments, Segment{})
			}
			last := &segments[len(segments)-1]
			last.Lines = append(last.Lines, it)
		case *ImageItem:
			segments = append(segments, Segment{Image: it})
			state = r.Reset(state, it.Top)
		}
	}

	return segments
}

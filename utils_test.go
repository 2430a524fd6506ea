package pdfdocx

import (
	"math"
	"testing"
)

// TestExpandLigatureText tests ligature expansion
func TestExpandLigatureText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"fi ligature", "of\uFB01ce", "office"},
		{"fl ligature", "\uFB02oor", "floor"},
		{"ffi ligature", "e\uFB03cient", "efficient"},
		{"st ligature", "fa\uFB06", "fast"},
		{"multiple ligatures", "of\uFB01ce \uFB02oor", "office floor"},
		{"no ligatures", "hello world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandLigatureText(tt.text)
			if result != tt.expected {
				t.Errorf("expandLigatureText() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMergeRects(t *testing.T) {
	r1 := Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	r2 := Rect{X0: 5, Y0: 5, X1: 15, Y1: 15}

	result := mergeRects(r1, r2)

	expected := Rect{X0: 0, Y0: 0, X1: 15, Y1: 15}

	if result != expected {
		t.Errorf("mergeRects() = %v, want %v", result, expected)
	}
}

// TestClamp tests value clamping
func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{"within range", 5, 0, 10, 5},
		{"below min", -5, 0, 10, 0},
		{"above max", 15, 0, 10, 10},
		{"at min", 0, 0, 10, 0},
		{"at max", 10, 0, 10, 10},
		{"NaN", math.NaN(), 6, 72, 6},
		{"infinity", math.Inf(1), 6, 72, 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := clamp(tt.value, tt.min, tt.max)
			if result != tt.expected {
				t.Errorf("clamp(%v, %v, %v) = %v, want %v",
					tt.value, tt.min, tt.max, result, tt.expected)
			}
		})
	}
}

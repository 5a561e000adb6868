package region

import (
	"image"
	"testing"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name                     string
		left, top, right, bottom int
		wantErr                  bool
	}{
		{"valid", 0, 0, 100, 100, false},
		{"minimum", 5, 5, 15, 15, false},
		{"too narrow", 0, 0, 9, 100, true},
		{"too short", 0, 0, 100, 9, true},
		{"inverted", 100, 100, 0, 0, true},
		{"empty", 10, 10, 10, 10, true},
		{"negative origin", -50, -50, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.left, tt.top, tt.right, tt.bottom)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsCode(err, apperrors.CodeSelectionInvalid) {
				t.Errorf("error code = %v, want SELECTION_INVALID", apperrors.CodeOf(err))
			}
		})
	}
}

func TestFromPointsNormalises(t *testing.T) {
	r, err := FromPoints(120, 80, 20, 10)
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	want := Rectangle{Left: 20, Top: 10, Right: 120, Bottom: 80}
	if r != want {
		t.Errorf("FromPoints = %+v, want %+v", r, want)
	}
}

func TestParse(t *testing.T) {
	r, err := Parse(" 0, 0 ,100,50")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Width() != 100 || r.Height() != 50 {
		t.Errorf("size = %dx%d, want 100x50", r.Width(), r.Height())
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,5,5"} {
		if _, err := Parse(bad); !apperrors.IsCode(err, apperrors.CodeSelectionInvalid) {
			t.Errorf("Parse(%q) error = %v, want SELECTION_INVALID", bad, err)
		}
	}
}

func TestBoundsAndString(t *testing.T) {
	r := Rectangle{Left: 10, Top: 20, Right: 110, Bottom: 70}
	if r.Bounds() != image.Rect(10, 20, 110, 70) {
		t.Errorf("Bounds = %v", r.Bounds())
	}
	if got := r.String(); got != "100x50 at (10, 20)" {
		t.Errorf("String = %q", got)
	}
	if r.IsZero() || !(Rectangle{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

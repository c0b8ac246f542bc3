package export

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/storage"
)

func track(name string, pts ...[2]float64) *storage.Track {
	t := &storage.Track{Ship: name}
	for i, p := range pts {
		row := make([]float64, 13)
		row[0], row[1] = p[0], p[1]
		t.Times = append(t.Times, float64(i))
		t.States = append(t.States, row)
	}
	return t
}

func TestTrajectorySVG(t *testing.T) {
	tracks := []*storage.Track{
		track("alpha", [2]float64{0, 0}, [2]float64{10, 0}, [2]float64{20, 5}),
		track("bravo", [2]float64{100, 100}, [2]float64{90, 90}),
	}
	svg, err := TrajectorySVG(tracks, PlaneXY, 400, 400)
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected 2 paths, got %d", got)
	}
	for _, want := range []string{"alpha", "bravo", Palette[0], Palette[1], "x-y", "</svg>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestTrajectorySVGSinglePoint(t *testing.T) {
	svg, err := TrajectorySVG([]*storage.Track{track("solo", [2]float64{5, 5})}, PlaneXY, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(svg, `cx="50.0" cy="50.0"`) {
		t.Errorf("lone point should be centered:\n%s", svg)
	}
}

func TestTrajectorySVGEmpty(t *testing.T) {
	if _, err := TrajectorySVG(nil, PlaneXY, 100, 100); err == nil {
		t.Error("expected error for no tracks")
	}
}

func TestParsePlane(t *testing.T) {
	tests := []struct {
		in   string
		want Plane
	}{
		{"", PlaneXY},
		{"XZ", PlaneXZ},
		{"yz", PlaneYZ},
	}
	for _, tt := range tests {
		got, err := ParsePlane(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParsePlane(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParsePlane("xw"); !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("err = %v", err)
	}
}

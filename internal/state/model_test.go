package state

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want RGB
	}{
		{"#ff0000", 0xff0000},
		{"00FF7f", 0x00ff7f},
		{"red", 0xff0000},
		{" Blue ", 0x0000ff},
		{"white", 0xffffff},
	}
	for _, tc := range cases {
		got, err := ParseColor(tc.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "#fff", "notacolour", "#gg0000"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestRGB_Text(t *testing.T) {
	var c RGB
	if err := c.UnmarshalText([]byte("#0a0b0c")); err != nil {
		t.Fatal(err)
	}
	if c.String() != "#0a0b0c" {
		t.Errorf("String() = %s", c)
	}
	if rgba := c.Color(); rgba.R != 0x0a || rgba.G != 0x0b || rgba.B != 0x0c || rgba.A != 0xff {
		t.Errorf("Color() = %v", rgba)
	}
}

func TestDrawList_Wire(t *testing.T) {
	l := DrawList{{10, 10}, {3, 0}, {-2, 5}}
	flat := l.Flatten()
	if diff := cmp.Diff([]int{10, 10, 3, 0, -2, 5}, flat); diff != "" {
		t.Errorf("Flatten (-want +got):\n%s", diff)
	}
	back, err := ParseDrawList(flat)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(l, back); diff != "" {
		t.Errorf("ParseDrawList (-want +got):\n%s", diff)
	}

	if _, err := ParseDrawList([]int{1, 2, 3}); !errors.Is(err, ErrOddDrawList) {
		t.Errorf("odd list error = %v", err)
	}
	if _, err := ParseDrawList(nil); !errors.Is(err, ErrEmptyDrawList) {
		t.Errorf("empty list error = %v", err)
	}
}

func TestDrawList_Path(t *testing.T) {
	l := DrawList{{10, 10}, {3, 0}, {0, 0}, {-1, 4}}
	want := DrawList{{10, 10}, {13, 10}, {13, 10}, {12, 14}}
	if diff := cmp.Diff([]image.Point(want), l.Path()); diff != "" {
		t.Errorf("Path (-want +got):\n%s", diff)
	}
}

func TestDrawList_Within(t *testing.T) {
	area := image.Rect(0, 0, 10, 10)
	cases := []struct {
		name string
		list DrawList
		want bool
	}{
		{"inside", DrawList{{1, 1}, {3, 4}, {-2, 0}}, true},
		{"click", DrawList{{9, 9}, {0, 0}, {0, 0}}, true},
		{"empty", nil, false},
		{"head outside", DrawList{{10, 0}}, false},
		{"leaves and returns", DrawList{{5, 5}, {8, 0}, {-8, 0}}, false},
		{"delta wider than area", DrawList{{0, 0}, {11, 0}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.list.Within(area); got != tc.want {
				t.Errorf("Within() = %v, want %v", got, tc.want)
			}
		})
	}
}

package chart

import (
	"bytes"
	"os"
	"testing"
	"time"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func assertPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		t.Fatalf("%s is not a PNG", path)
	}
}

func TestRenderHistograms(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path, err := Render(Spec{
		Kind: KindHistograms,
		File: "numeric_distributions.png",
		Bins: 5,
		Series: []Series{
			{Name: "rain_mm", Values: []float64{10, 12, 1000, 14}},
			{Name: "temp_c", Values: []float64{1, 2, 3}},
			{Name: "humidity", Values: []float64{40, 45, 50, 55}},
		},
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	assertPNG(t, path)
}

func TestRenderLine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path, err := Render(Spec{
		Kind:  KindLine,
		File:  "monthly_rain_mm.png",
		Title: "Monthly rain_mm",
		Points: []Point{
			{X: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Y: 10},
			{X: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Y: 0},
			{X: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Y: 25},
		},
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	assertPNG(t, path)
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cases := []Spec{
		{Kind: KindHistograms, File: "a.png"},
		{Kind: KindHistograms, File: "b.png", Series: []Series{{Name: "x"}}},
		{Kind: KindLine, File: "c.png"},
		{Kind: "pie", File: "d.png"},
		{Kind: KindLine},
	}
	for _, s := range cases {
		if _, err := Render(s, dir); err == nil {
			t.Errorf("Render(%+v) succeeded, want error", s)
		}
	}
}

package lib

import (
	"math"
	"testing"
)

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		latitude  float64
		longitude float64
		ok        bool
	}{
		{52.52, 13.40, true},
		{-90, 180, true},
		{91, 0, false},
		{0, -181, false},
		{math.NaN(), 0, false},
	}
	for i, c := range cases {
		err := ValidateCoordinates(c.latitude, c.longitude)
		if c.ok && err != nil {
			t.Fatalf("case %d expected ok, got err: %v", i, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("case %d expected error, got nil", i)
		}
	}
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	latitude, longitude := 48.8566, 2.3522
	box := NewBoundingBox(latitude, longitude, 10)

	if !box.Contains(latitude, longitude) {
		t.Fatal("box must contain its centre")
	}

	// A point 9km north is inside, 11km north is outside.
	degreesPerKm := 180 / (math.Pi * earthRadiusKm)
	if !box.Contains(latitude+9*degreesPerKm, longitude) {
		t.Fatal("expected point 9km north inside")
	}
	if box.Contains(latitude+11*degreesPerKm, longitude) {
		t.Fatal("expected point 11km north outside")
	}
}

func TestBoundingBoxNearPole(t *testing.T) {
	box := NewBoundingBox(89.99, 0, 50)
	if box.MaxLatitude != 90 {
		t.Fatalf("expected clamped latitude, got %v", box.MaxLatitude)
	}
	if box.MinLongitude != -180 || box.MaxLongitude != 180 {
		t.Fatalf("expected full longitude range, got %v..%v", box.MinLongitude, box.MaxLongitude)
	}
}

func TestBoundingBoxAcrossAntimeridian(t *testing.T) {
	box := NewBoundingBox(0, 179.99, 10)
	if !box.CrossesAntimeridian() {
		t.Fatalf("expected a wrapped box, got %v..%v", box.MinLongitude, box.MaxLongitude)
	}

	distance := HaversineKm(0, 179.99, 0, -179.99)
	if distance > 10 {
		t.Fatalf("test point must be inside the radius, got %vkm", distance)
	}
	if !box.Contains(0, -179.99) {
		t.Fatal("expected point across the antimeridian inside")
	}
	if !box.Contains(0, 179.95) {
		t.Fatal("expected point west of the centre inside")
	}
	if box.Contains(0, 0) || box.Contains(0, -179.5) {
		t.Fatal("expected far points outside")
	}

	ranges := box.LongitudeRanges()
	if len(ranges) != 2 || ranges[0][1] != 180 || ranges[1][0] != -180 {
		t.Fatalf("unexpected ranges %v", ranges)
	}

	west := NewBoundingBox(0, -179.99, 10)
	if !west.CrossesAntimeridian() || !west.Contains(0, 179.99) {
		t.Fatalf("expected wrapped box from the west side, got %v..%v", west.MinLongitude, west.MaxLongitude)
	}
}

func TestHaversineKm(t *testing.T) {
	// Paris to London is roughly 344km.
	distance := HaversineKm(48.8566, 2.3522, 51.5074, -0.1278)
	if distance < 330 || distance > 360 {
		t.Fatalf("unexpected distance %v", distance)
	}
}

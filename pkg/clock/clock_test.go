package clock

import "testing"

func TestNewStartsAtZero(t *testing.T) {
	c := New()
	if now := c.Now(); now < 0 || now > 0.05 {
		t.Fatalf("expected Now() close to 0 right after New, got %v", now)
	}
}

func TestSetTimeAdvancesOrigin(t *testing.T) {
	c := New()
	c.SetTime(10)
	now := c.Now()
	if now < 9.95 || now > 10.05 {
		t.Fatalf("expected Now() close to 10 after SetTime(10), got %v", now)
	}
}

func TestSetTimeIgnoresInvalidValues(t *testing.T) {
	c := New()
	c.SetTime(5)
	before := c.Now()

	c.SetTime(-1)
	c.SetTime(nan())

	after := c.Now()
	if after < before {
		t.Fatalf("SetTime with invalid values should be ignored, clock moved backwards: before=%v after=%v", before, after)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

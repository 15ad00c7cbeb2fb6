package signal

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		previous, current bool
		expected          EdgeState
	}{
		{false, false, SteadyLow},
		{false, true, Rising},
		{true, true, SteadyHigh},
		{true, false, Falling},
	}

	for _, tt := range tests {
		got := Classify(tt.previous, tt.current)
		if got != tt.expected {
			t.Errorf("Classify(%v, %v) = %v, expected %v", tt.previous, tt.current, got, tt.expected)
		}
		if got.High() != tt.current {
			t.Errorf("%v.High() = %v, expected %v", got, got.High(), tt.current)
		}
	}
}

func TestSnapshotDefaults(t *testing.T) {
	var zero Snapshot
	if zero.Digital("A") {
		t.Error("expected zero snapshot button to be released")
	}
	if zero.Directional(POV) != PositionNone {
		t.Error("expected zero snapshot hat to be none")
	}
	if zero.Analog(AxisLeftX) != 0 {
		t.Error("expected zero snapshot axis to be centered")
	}

	s := NewSnapshot(7)
	s.SetAnalog(AxisLeftY, 3)
	if s.Analog(AxisLeftY) != 1 {
		t.Errorf("expected axis clamped to 1, got %v", s.Analog(AxisLeftY))
	}
	if s.Cycle() != 7 {
		t.Errorf("expected cycle 7, got %d", s.Cycle())
	}
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(XboxLayout())
	src.Press(ButtonA)
	src.SetPOV(POV, Down)
	src.SetAxis(TriggerRight, 0.75)

	snap, err := src.Sample(1)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	// Values set after sampling must not leak into the snapshot.
	src.Release(ButtonA)

	if !snap.Digital(ButtonA) {
		t.Error("expected A pressed in snapshot")
	}
	if snap.Directional(POV) != Down {
		t.Errorf("expected POV down, got %v", snap.Directional(POV))
	}
	if snap.Analog(TriggerRight) != 0.75 {
		t.Errorf("expected right trigger 0.75, got %v", snap.Analog(TriggerRight))
	}
	if src.Samples() != 1 {
		t.Errorf("expected 1 sample, got %d", src.Samples())
	}

	src.Reset()
	snap, _ = src.Sample(2)
	if snap.Directional(POV) != PositionNone {
		t.Error("expected POV reset to none")
	}
}

func TestTriggerActive(t *testing.T) {
	s := NewSnapshot(1)
	s.SetDigital(ButtonB, true)
	s.SetDirectional(POV, Up)
	s.SetAnalog(TriggerRight, 0.6)
	s.SetAnalog(AxisLeftY, -0.6)

	tests := []struct {
		name     string
		trigger  Trigger
		expected bool
	}{
		{"button down", Button(ButtonB), true},
		{"button up", Button(ButtonA), false},
		{"pov match", POVAt(Up), true},
		{"pov other", POVAt(Down), false},
		{"axis above", AxisAbove(TriggerRight, 0.5), true},
		{"axis not above", AxisAbove(TriggerRight, 0.7), false},
		{"axis below", AxisBelow(AxisLeftY, -0.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trigger.Active(s); got != tt.expected {
				t.Errorf("Active() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTriggerEdgeOnHatProjection(t *testing.T) {
	prev := NewSnapshot(1)
	prev.SetDirectional(POV, Up)
	cur := NewSnapshot(2)
	cur.SetDirectional(POV, UpRight)

	if got := POVAt(Up).Edge(prev, cur); got != Falling {
		t.Errorf("expected falling when hat leaves target, got %v", got)
	}
	if got := POVAt(UpRight).Edge(prev, cur); got != Rising {
		t.Errorf("expected rising when hat reaches target, got %v", got)
	}
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		input    string
		expected Trigger
	}{
		{"A", Button("A")},
		{"pov:up", POVAt(Up)},
		{"pov:180", POVAt(Down)},
		{"hat:Hat2:left", Hat("Hat2", Left)},
		{"axis:RightTrigger>0.5", AxisAbove("RightTrigger", 0.5)},
		{"axis:LeftY<-0.25", AxisBelow("LeftY", -0.25)},
	}

	for _, tt := range tests {
		got, err := ParseTrigger(tt.input)
		if err != nil {
			t.Errorf("ParseTrigger(%q): %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseTrigger(%q) = %+v, expected %+v", tt.input, got, tt.expected)
		}
		again, err := ParseTrigger(got.String())
		if err != nil || again != got {
			t.Errorf("String() of %q did not parse back: %q", tt.input, got.String())
		}
	}

	for _, bad := range []string{"", "pov:sideways", "pov:10", "axis:LeftY", "axis:>1", "foo:bar", "hat:left"} {
		if _, err := ParseTrigger(bad); err == nil {
			t.Errorf("ParseTrigger(%q): expected error", bad)
		}
	}
}

func TestTriggerValidate(t *testing.T) {
	layout := XboxLayout()

	if err := Button(ButtonA).Validate(layout); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Button("Z").Validate(layout); !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("expected ErrUnknownSignal, got %v", err)
	}
	if err := Hat(POV, PositionNone).Validate(layout); !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("expected ErrInvalidTrigger for none position, got %v", err)
	}
	if err := AxisAbove(ButtonA, 0.5).Validate(layout); !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("expected kind mismatch to be unknown, got %v", err)
	}
}

func TestApplyDeadband(t *testing.T) {
	if ApplyDeadband(0.04, 0.05) != 0 {
		t.Error("expected value inside deadband to be zeroed")
	}
	if ApplyDeadband(-0.5, 0.05) != -0.5 {
		t.Error("expected value outside deadband to pass through")
	}
}

func TestHatPosition(t *testing.T) {
	tests := []struct {
		x, y int
		want Position
	}{
		{0, 0, PositionNone},
		{0, -1, Up},
		{1, -1, UpRight},
		{1, 0, Right},
		{1, 1, DownRight},
		{0, 1, Down},
		{-1, 1, DownLeft},
		{-1, 0, Left},
		{-1, -1, UpLeft},
		{0, -32767, Up},
	}
	for _, tt := range tests {
		if got := HatPosition(tt.x, tt.y); got != tt.want {
			t.Errorf("HatPosition(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition(" Down-Left ")
	if err != nil || p != DownLeft {
		t.Errorf("expected down-left, got %v (%v)", p, err)
	}
	if _, err := ParsePosition("12"); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

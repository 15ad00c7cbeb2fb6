package command

import (
	"errors"
	"reflect"
	"testing"
)

type testResource string

func (r testResource) Name() string { return string(r) }

// recorder is a command that logs its lifecycle calls.
type recorder struct {
	name     string
	reqs     []Resource
	finishAt int
	executes int
	calls    []string
}

func (r *recorder) Name() string             { return r.name }
func (r *recorder) Requirements() []Resource { return r.reqs }
func (r *recorder) Start() error {
	r.executes = 0
	r.calls = append(r.calls, "start:"+r.name)
	return nil
}
func (r *recorder) Execute() error {
	r.executes++
	r.calls = append(r.calls, "execute:"+r.name)
	return nil
}
func (r *recorder) IsFinished() bool { return r.finishAt > 0 && r.executes >= r.finishAt }
func (r *recorder) End(interrupted bool) error {
	if interrupted {
		r.calls = append(r.calls, "interrupt:"+r.name)
	} else {
		r.calls = append(r.calls, "end:"+r.name)
	}
	return nil
}

func TestInstantRunsOncePerActivation(t *testing.T) {
	count := 0
	cmd, err := NewInstant("inc", func() error { count++; return nil })
	if err != nil {
		t.Fatalf("NewInstant: %v", err)
	}

	for activation := 0; activation < 2; activation++ {
		_ = cmd.Start()
		if cmd.IsFinished() {
			t.Fatal("expected instant command unfinished after Start")
		}
		_ = cmd.Execute()
		if !cmd.IsFinished() {
			t.Fatal("expected instant command finished after one Execute")
		}
		_ = cmd.Execute()
		_ = cmd.End(false)
	}

	if count != 2 {
		t.Errorf("expected 2 runs over 2 activations, got %d", count)
	}
}

func TestInstantPropagatesError(t *testing.T) {
	fault := errors.New("motor controller fault")
	cmd := Must(NewInstant("fail", func() error { return fault }))
	_ = cmd.Start()
	if err := cmd.Execute(); !errors.Is(err, fault) {
		t.Errorf("expected fault to propagate, got %v", err)
	}
}

func TestConstructorValidation(t *testing.T) {
	r := testResource("arm")
	tests := []struct {
		name string
		err  error
	}{
		{"instant nil fn", func() error { _, err := NewInstant("x", nil); return err }()},
		{"instant empty name", func() error { _, err := NewInstant("", func() error { return nil }); return err }()},
		{"run nil fn", func() error { _, err := NewRun("x", nil, nil, r); return err }()},
		{"nil requirement", func() error { _, err := NewRun("x", func() error { return nil }, nil, nil); return err }()},
		{"functional no hooks", func() error { _, err := NewFunctional("x", Hooks{}); return err }()},
		{"wait zero", func() error { _, err := NewWait("x", 0); return err }()},
		{"empty sequence", func() error { _, err := NewSequence("x"); return err }()},
		{"timeout zero", func() error { _, err := WithTimeout(&recorder{name: "r"}, 0); return err }()},
		{"rename empty", func() error { _, err := Rename("", &recorder{name: "r"}); return err }()},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, ErrInvalidCommand) {
			t.Errorf("%s: expected ErrInvalidCommand, got %v", tt.name, tt.err)
		}
	}
}

func TestRequirementsDeduplicated(t *testing.T) {
	a, b := testResource("a"), testResource("b")
	cmd := Must(NewRun("run", func() error { return nil }, nil, a, b, a))

	got := cmd.Requirements()
	if !reflect.DeepEqual(got, []Resource{a, b}) {
		t.Errorf("expected [a b], got %v", got)
	}
	if !Requires(cmd, b) || Requires(cmd, testResource("c")) {
		t.Error("Requires returned the wrong answer")
	}
}

func TestRunCommandEndHook(t *testing.T) {
	var ended []bool
	cmd := Must(NewRun("run", func() error { return nil }, func(interrupted bool) error {
		ended = append(ended, interrupted)
		return nil
	}))

	if cmd.IsFinished() {
		t.Error("continuous command must not finish on its own")
	}
	_ = cmd.End(true)
	if !reflect.DeepEqual(ended, []bool{true}) {
		t.Errorf("expected one interrupted end, got %v", ended)
	}
}

func TestWaitCommand(t *testing.T) {
	w := Must(NewWait("wait", 3))
	_ = w.Start()
	for i := 1; i <= 3; i++ {
		_ = w.Execute()
		if w.IsFinished() != (i == 3) {
			t.Errorf("cycle %d: IsFinished = %v", i, w.IsFinished())
		}
	}
	_ = w.Start()
	if w.IsFinished() {
		t.Error("expected restart to reset the count")
	}
}

func TestSequence(t *testing.T) {
	a := &recorder{name: "a", finishAt: 1, reqs: []Resource{testResource("x")}}
	b := &recorder{name: "b", finishAt: 2, reqs: []Resource{testResource("y"), testResource("x")}}
	seq := Must(NewSequence("seq", a, b))

	if !reflect.DeepEqual(seq.Requirements(), []Resource{testResource("x"), testResource("y")}) {
		t.Errorf("unexpected requirements %v", seq.Requirements())
	}

	_ = seq.Start()
	for i := 0; i < 3 && !seq.IsFinished(); i++ {
		_ = seq.Execute()
	}
	if !seq.IsFinished() {
		t.Fatal("expected sequence finished after 3 cycles")
	}
	_ = seq.End(false)

	if !reflect.DeepEqual(a.calls, []string{"start:a", "execute:a", "end:a"}) {
		t.Errorf("unexpected calls for a: %v", a.calls)
	}
	if !reflect.DeepEqual(b.calls, []string{"start:b", "execute:b", "execute:b", "end:b"}) {
		t.Errorf("unexpected calls for b: %v", b.calls)
	}
}

func TestSequenceInterruptEndsCurrentChild(t *testing.T) {
	a := &recorder{name: "a"}
	b := &recorder{name: "b"}
	seq := Must(NewSequence("seq", a, b))

	_ = seq.Start()
	_ = seq.Execute()
	_ = seq.End(true)

	if !reflect.DeepEqual(a.calls, []string{"start:a", "execute:a", "interrupt:a"}) {
		t.Errorf("unexpected calls for a: %v", a.calls)
	}
	if len(b.calls) != 0 {
		t.Errorf("expected b untouched, got %v", b.calls)
	}
}

func TestTimeout(t *testing.T) {
	inner := &recorder{name: "inner"}
	cmd := Must(WithTimeout(inner, 2))

	if cmd.Name() != "inner" {
		t.Errorf("expected inner name, got %q", cmd.Name())
	}
	_ = cmd.Start()
	_ = cmd.Execute()
	if cmd.IsFinished() {
		t.Error("expected unfinished after 1 cycle")
	}
	_ = cmd.Execute()
	if !cmd.IsFinished() {
		t.Error("expected timeout after 2 cycles")
	}
	_ = cmd.End(false)

	last := inner.calls[len(inner.calls)-1]
	if last != "interrupt:inner" {
		t.Errorf("expected timed-out inner command to be interrupted, got %q", last)
	}
}

func TestRename(t *testing.T) {
	inner := &recorder{name: "inner", finishAt: 1}
	named := Must(Rename("Drop", inner))
	if named.Name() != "Drop" || named.Unwrap() != Command(inner) {
		t.Error("rename did not wrap correctly")
	}
	_ = named.Start()
	_ = named.Execute()
	if !named.IsFinished() {
		t.Error("expected renamed command to forward IsFinished")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	drop := &recorder{name: "drop"}

	if err := reg.Register("Drop", drop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("Drop", drop); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if err := reg.Register("", drop); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("expected ErrInvalidCommand, got %v", err)
	}

	got, err := reg.Lookup("Drop")
	if err != nil || got != Command(drop) {
		t.Errorf("Lookup(Drop) = %v, %v", got, err)
	}
	if _, err := reg.Lookup("Missing"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}

	other := &recorder{name: "other"}
	_ = reg.Replace("Drop", other)
	if got, _ := reg.Get("Drop"); got != Command(other) {
		t.Error("expected Replace to overwrite")
	}
	_ = reg.Register("Aim", other)
	if !reflect.DeepEqual(reg.Names(), []string{"Aim", "Drop"}) {
		t.Errorf("unexpected names %v", reg.Names())
	}
	if !reg.Unregister("Aim") || reg.Unregister("Aim") {
		t.Error("Unregister returned the wrong answer")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 command, got %d", reg.Len())
	}
}

func TestStateString(t *testing.T) {
	if Idle.String() != "idle" || Running.String() != "running" || Ending.String() != "ending" {
		t.Error("unexpected state names")
	}
}

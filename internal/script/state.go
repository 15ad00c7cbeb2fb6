package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/robot"
)

// DefaultCallTimeout bounds a single call into a script.
const DefaultCallTimeout = 5 * time.Millisecond

// Host resolves subsystem names used by scripts.
type Host interface {
	Subsystem(name string) (command.Resource, bool)
}

// newState creates a Lua state with only the safe standard libraries and
// the host API installed.
func newState(host Host, log *logging.Logger) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	api := &hostAPI{host: host, log: log}
	L.SetGlobal("set_speed", L.NewFunction(api.setSpeed))
	L.SetGlobal("lock", L.NewFunction(api.lock))
	L.SetGlobal("set_angle", L.NewFunction(api.setAngle))
	L.SetGlobal("set_limit", L.NewFunction(api.setLimit))
	L.SetGlobal("zero", L.NewFunction(api.zero))
	L.SetGlobal("log", L.NewFunction(api.logf))
	L.SetGlobal("print", L.NewFunction(api.logf))
	return L
}

// hostAPI implements the functions scripts call to drive subsystems.
type hostAPI struct {
	host Host
	log  *logging.Logger
}

func (a *hostAPI) subsystem(L *lua.LState) command.Resource {
	name := L.CheckString(1)
	r, ok := a.host.Subsystem(name)
	if !ok {
		L.RaiseError("%v: %s", ErrUnknownSubsystem, name)
	}
	return r
}

func unsupported(L *lua.LState, r command.Resource, op string) {
	L.RaiseError("%v: %s cannot %s", ErrUnsupported, r.Name(), op)
}

func raise(L *lua.LState, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (a *hostAPI) setSpeed(L *lua.LState) int {
	r := a.subsystem(L)
	v := float64(L.CheckNumber(2))
	s, ok := r.(robot.SpeedSetter)
	if !ok {
		unsupported(L, r, "set_speed")
	}
	return raise(L, s.SetSpeed(v))
}

func (a *hostAPI) lock(L *lua.LState) int {
	r := a.subsystem(L)
	s, ok := r.(robot.Locker)
	if !ok {
		unsupported(L, r, "lock")
	}
	return raise(L, s.Lock())
}

func (a *hostAPI) setAngle(L *lua.LState) int {
	r := a.subsystem(L)
	v := float64(L.CheckNumber(2))
	s, ok := r.(robot.AngleSetter)
	if !ok {
		unsupported(L, r, "set_angle")
	}
	return raise(L, s.SetAngle(v))
}

func (a *hostAPI) setLimit(L *lua.LState) int {
	r := a.subsystem(L)
	v := float64(L.CheckNumber(2))
	s, ok := r.(robot.LimitSetter)
	if !ok {
		unsupported(L, r, "set_limit")
	}
	return raise(L, s.SetLimit(v))
}

func (a *hostAPI) zero(L *lua.LState) int {
	r := a.subsystem(L)
	s, ok := r.(robot.Zeroer)
	if !ok {
		unsupported(L, r, "zero")
	}
	return raise(L, s.Zero())
}

func (a *hostAPI) logf(L *lua.LState) int {
	n := L.GetTop()
	msg := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			msg += " "
		}
		msg += L.ToStringMeta(L.Get(i)).String()
	}
	a.log.Info("%s", msg)
	return 0
}

// call runs fn with args under a timeout and returns its first result.
func call(L *lua.LState, timeout time.Duration, fn *lua.LFunction, args ...lua.LValue) (ret lua.LValue, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, err
	}
	ret = L.Get(-1)
	L.Pop(1)
	return ret, nil
}

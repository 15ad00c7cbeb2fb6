package auto

import (
	"sync"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/logging"
)

// Scheduler starts and interrupts commands. *scheduler.Scheduler
// satisfies it.
type Scheduler interface {
	Schedule(cmd command.Command) error
	Cancel(cmd command.Command) error
}

// Launcher returns an instant command that builds the routine called name
// from the library's current contents and schedules it, interrupting the
// run it started last time. Routines reloaded by a Watcher take effect on
// the next launch. A routine that no longer builds is logged and skipped.
func (l *Library) Launcher(name string, registry *command.Registry, sched Scheduler, log *logging.Logger) (*command.InstantCommand, error) {
	if log == nil {
		log = logging.Discard()
	}

	var (
		mu   sync.Mutex
		last command.Command
	)
	return command.NewInstant("launch:"+name, func() error {
		cmd, err := l.Build(name, registry)
		if err != nil {
			log.Warn("not launching %s: %v", name, err)
			return nil
		}

		mu.Lock()
		prev := last
		last = cmd
		mu.Unlock()

		if prev != nil {
			if err := sched.Cancel(prev); err != nil {
				return err
			}
		}
		log.Info("launching %s", name)
		return sched.Schedule(cmd)
	})
}

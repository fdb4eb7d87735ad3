package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/BlogView/internal/app"
)

// CommandScheduler is a runtime scheduler whose queued jobs leave the event
// loop as commands.
type CommandScheduler interface {
	app.Scheduler
	Cmd() tea.Cmd
}

// continueMsg carries a continuation back onto the event loop.
type continueMsg struct {
	apply func()
}

type job struct {
	work  func() func()
	delay time.Duration
	fn    func()
}

// Scheduler implements the runtime's scheduler on top of bubbletea. Work
// and timers queue up during Update and leave as commands; their
// continuations come back as messages and run inside Update.
type Scheduler struct {
	jobs []job
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Go queues work to run in a command goroutine.
func (s *Scheduler) Go(work func() func()) {
	s.jobs = append(s.jobs, job{work: work})
}

// After queues fn to run on the loop once d has elapsed.
func (s *Scheduler) After(d time.Duration, fn func()) {
	s.jobs = append(s.jobs, job{delay: d, fn: fn})
}

func (s *Scheduler) take() []job {
	jobs := s.jobs
	s.jobs = nil
	return jobs
}

// Cmd drains the queue into a single command, nil when nothing is queued.
func (s *Scheduler) Cmd() tea.Cmd {
	jobs := s.take()
	if len(jobs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(jobs))
	for _, j := range jobs {
		if j.work != nil {
			work := j.work
			cmds = append(cmds, func() tea.Msg {
				return continueMsg{apply: work()}
			})
			continue
		}
		fn := j.fn
		cmds = append(cmds, tea.Tick(j.delay, func(time.Time) tea.Msg {
			return continueMsg{apply: fn}
		}))
	}
	return tea.Batch(cmds...)
}

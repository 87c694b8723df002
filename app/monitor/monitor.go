// Package monitor shows kernel state on the HAL display: a thread table with
// priorities, stack slack, per-thread context-switch counts and the average
// length of each thread's runs on the profile clock.
package monitor

import (
	"fmt"
	"io"
	"slices"

	"tickos/hal"
	"tickos/internal/klog"
	"tickos/kernel"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fontHeight = 10
	fontOffset = 6
)

// Row is one line of the thread table.
type Row struct {
	ID       kernel.ThreadID
	Name     string
	Priority kernel.Priority
	Current  kernel.Priority
	State    kernel.ThreadState
	Slack    int
	Switches uint64
	AvgRun   uint32
}

// Monitor collects switch statistics through kernel callouts and renders
// them. It must be installed before the threads it should list are created.
type Monitor struct {
	k   *kernel.Kernel
	log *klog.Logger
	lim *klog.Limiter

	fb hal.Framebuffer
	d  *Display
	t  *tinyterm.Terminal

	every    uint32
	threads  []*kernel.Thread
	switches [256]uint64
	runs     [256]kernel.ProfileTimer
	total    uint64
}

// New returns a monitor for k. disp may be nil, in which case Refresh logs
// a summary instead of drawing. lim throttles the per-thread switch log.
func New(k *kernel.Kernel, disp hal.Display, log *klog.Logger, lim *klog.Limiter) *Monitor {
	m := &Monitor{k: k, log: log, lim: lim, every: k.MillisecondsToTicks(500)}
	for i := range m.runs {
		m.runs[i].Init(k)
	}
	if disp != nil {
		if fb := disp.Framebuffer(); fb != nil {
			m.fb = fb
			m.d = NewDisplay(fb)
		}
	}
	return m
}

// Install registers the monitor's thread-create and context-switch callouts.
func (m *Monitor) Install() {
	m.k.SetThreadCreateCallout(m.created)
	m.k.SetContextSwitchCallout(m.switched)
}

// SetInterval sets the refresh period of Run in ticks.
func (m *Monitor) SetInterval(ticks uint32) { m.every = max(ticks, 1) }

// Run is a thread entry that refreshes the display forever.
func (m *Monitor) Run(any) {
	for {
		m.Refresh()
		m.k.Sleep(m.every)
	}
}

// Total returns the number of context switches seen.
func (m *Monitor) Total() uint64 { return m.total }

// Switches returns the number of times id was switched in.
func (m *Monitor) Switches(id kernel.ThreadID) uint64 { return m.switches[id] }

// Rows snapshots the thread table, idle thread last.
func (m *Monitor) Rows() []Row {
	rows := make([]Row, 0, len(m.threads)+1)
	for _, t := range m.threads {
		rows = append(rows, m.row(t))
	}
	return append(rows, m.row(m.k.IdleThread()))
}

func (m *Monitor) row(t *kernel.Thread) Row {
	return Row{
		ID:       t.ID(),
		Name:     t.Name(),
		Priority: t.Priority(),
		Current:  t.CurPriority(),
		State:    t.State(),
		Slack:    t.StackSlack(),
		Switches: m.switches[t.ID()],
		AvgRun:   m.runs[t.ID()].Average(),
	}
}

// Render writes the table as text.
func (m *Monitor) Render(w io.Writer) error {
	return m.render(w, 0)
}

// render writes at most maxLines lines (0 = no limit), header included.
func (m *Monitor) render(w io.Writer, maxLines int) error {
	rows := m.Rows()
	if maxLines > 2 && len(rows) > maxLines-2 {
		rows = rows[:maxLines-2]
	}
	if _, err := fmt.Fprintf(w, "ticks %-8d switches %d\n", m.k.Ticks(), m.total); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%3s %-9s %3s %3s %-7s %5s %6s %5s\n", "ID", "NAME", "PRI", "CUR", "STATE", "SLACK", "SW", "RUN"); err != nil {
		return err
	}
	for _, r := range rows {
		name := r.Name
		if len(name) > 9 {
			name = name[:9]
		}
		if _, err := fmt.Fprintf(w, "%3d %-9s %3d %3d %-7s %5d %6d %5d\n",
			r.ID, name, r.Priority, r.Current, r.State, r.Slack, r.Switches, r.AvgRun); err != nil {
			return err
		}
	}
	return nil
}

// Refresh redraws the table, or logs a summary when there is no display.
func (m *Monitor) Refresh() {
	if m.d == nil {
		m.log.Info().
			Uint64("ticks", m.k.Ticks()).
			Uint64("switches", m.total).
			Int("threads", len(m.threads)).
			Log("monitor")
		return
	}
	m.reset()
	// The terminal wraps to the top row after its last line.
	if err := m.render(m.t, m.fb.Height()/fontHeight-1); err != nil {
		m.log.Err().Err(err).Log("monitor render")
		return
	}
	m.t.Display()
}

func (m *Monitor) reset() {
	m.t = tinyterm.NewTerminal(m.d)
	m.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: fontHeight,
		FontOffset: fontOffset,
	})
	m.fb.ClearRGB(0, 0, 0)
}

func (m *Monitor) created(t *kernel.Thread) {
	if !slices.Contains(m.threads, t) {
		m.threads = append(m.threads, t)
	}
}

func (m *Monitor) switched(from, to *kernel.Thread) {
	m.switches[to.ID()]++
	m.total++
	if from != nil {
		m.runs[from.ID()].Stop()
	}
	m.runs[to.ID()].Start()
	b := m.log.Debug()
	if !b.Enabled() {
		return
	}
	if !m.lim.Allow(to.ID()) {
		b.Release()
		return
	}
	if from != nil {
		b = b.Str("from", from.Name())
	}
	b.Str("to", to.Name()).
		Uint64("count", m.switches[to.ID()]).
		Log("switch")
}

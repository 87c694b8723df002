package kernel

import "tickos/internal/ll"

// TimerList holds the active timers and advances them once per tick.
type TimerList struct {
	k    *Kernel
	list ll.DoubleList[*Timer]
	pass uint64
}

func (l *TimerList) init(k *Kernel) {
	l.k = k
	l.list = ll.DoubleList[*Timer]{Checked: k.cfg.SafeUnlink}
}

// Add arms t: the countdown restarts from its interval.
func (l *TimerList) Add(t *Timer) {
	cs := l.k.enterCritical()
	defer cs.exit()
	l.list.Remove(t)
	t.left = t.interval
	t.flags = (t.flags | timerActive) &^ timerExpired
	t.pass = l.pass
	l.list.Add(t)
}

// Remove disarms t. Removing an unlinked timer has no effect.
func (l *TimerList) Remove(t *Timer) {
	cs := l.k.enterCritical()
	defer cs.exit()
	if l.list.Remove(t) {
		t.flags &^= timerActive
	}
}

// Len returns the number of active timers.
func (l *TimerList) Len() int { return l.list.Len() }

// Process advances every active timer by one tick and fires those that
// reach zero. One-shot timers are disarmed and flagged expired before their
// callback runs, so a callback may restart its own timer. Callbacks may add
// or remove timers; each timer is still counted at most once per tick.
func (l *TimerList) Process() {
	cs := l.k.enterCritical()
	l.pass++
	pass := l.pass
	cs.exit()
	for l.step(pass) {
	}
}

// step counts down timers not yet seen in this pass until one fires. It
// reports whether a callback ran, in which case the list is rescanned.
func (l *TimerList) step(pass uint64) bool {
	cs := l.k.enterCritical()
	for t := l.list.Head(); t != nil; t = t.links.Next() {
		if t.pass == pass {
			continue
		}
		t.pass = pass
		if t.left > 1 {
			t.left--
			continue
		}
		if t.flags&timerOneShot != 0 {
			l.list.Remove(t)
			t.left = 0
			t.flags = (t.flags &^ timerActive) | timerExpired
		} else {
			t.left = t.interval
		}
		cb, owner := t.cb, t.owner
		cs.exit()
		if cb != nil {
			cb(owner)
		}
		return true
	}
	cs.exit()
	return false
}

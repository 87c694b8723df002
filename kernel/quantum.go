package kernel

// quantum time-slices threads that share a priority level. A single timer
// is armed for the running thread while it has peers on its ready list.
type quantum struct {
	k      *Kernel
	timer  Timer
	thread *Thread
}

func (q *quantum) init(k *Kernel) {
	q.k = k
	q.timer.Init(k)
}

func (q *quantum) add(t *Thread) {
	if t == nil || t == &q.k.idle || t.quantum == 0 {
		return
	}
	if t.state != ThreadReady || t.owner.Len() < 2 {
		return
	}
	q.thread = t
	q.timer.start(false, uint32(t.quantum), quantumExpired, t)
}

func (q *quantum) remove() {
	q.timer.Stop()
	q.thread = nil
}

// update arms the quantum for t unless it is already running for t.
func (q *quantum) update(t *Thread) {
	if q.thread == t && q.timer.Active() {
		return
	}
	q.remove()
	q.add(t)
}

func quantumExpired(t *Thread) {
	k := t.k
	k.quantum.thread = nil
	if t == k.sched.current {
		k.Yield()
	}
}

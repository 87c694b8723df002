package kernel

import "tickos/internal/ll"

// Transaction is a deferred request: a code and an opaque payload.
type Transaction struct {
	links ll.Links[*Transaction]
	code  uint16
	data  any
}

// Links exposes the transaction's list node.
func (t *Transaction) Links() *ll.Links[*Transaction] { return &t.links }

// Set populates the transaction.
func (t *Transaction) Set(code uint16, data any) {
	t.code = code
	t.data = data
}

// Code returns the request code.
func (t *Transaction) Code() uint16 { return t.code }

// Data returns the payload.
func (t *Transaction) Data() any { return t.data }

// TransactionPool is the fixed set of transactions shared by a kernel's
// queues. It is populated once by Init.
type TransactionPool struct {
	k     *Kernel
	slots []Transaction
	free  ll.DoubleList[*Transaction]
}

// Init allocates size transactions and puts them on the free list.
func (p *TransactionPool) Init(k *Kernel, size int) {
	p.k = k
	p.slots = make([]Transaction, size)
	p.free = ll.DoubleList[*Transaction]{Checked: k.cfg.SafeUnlink}
	for i := range p.slots {
		p.free.Add(&p.slots[i])
	}
}

// Available returns the number of free transactions.
func (p *TransactionPool) Available() int { return p.free.Len() }

// Size returns the pool capacity.
func (p *TransactionPool) Size() int { return len(p.slots) }

// TransactionQueue is a FIFO of transactions drawn from a pool.
type TransactionQueue struct {
	pool *TransactionPool
	list ll.DoubleList[*Transaction]
}

// Init binds q to pool. Pending transactions are returned to the pool.
func (q *TransactionQueue) Init(pool *TransactionPool) {
	if q.pool != nil {
		for tx := q.Dequeue(); tx != nil; tx = q.Dequeue() {
			q.Finish(tx)
		}
	}
	q.pool = pool
	q.list = ll.DoubleList[*Transaction]{Checked: pool.k.cfg.SafeUnlink}
}

// Enqueue takes a transaction from the pool, fills it and appends it.
// An exhausted pool panics the kernel.
func (q *TransactionQueue) Enqueue(code uint16, data any) *Transaction {
	k := q.pool.k
	cs := k.enterCritical()
	defer cs.exit()
	tx, ok := q.pool.free.PopHead()
	if !ok {
		k.Panic(PanicTransactionPoolExhausted)
	}
	tx.Set(code, data)
	q.list.Add(tx)
	return tx
}

// Dequeue removes and returns the oldest transaction, or nil. The caller
// hands it back with Finish.
func (q *TransactionQueue) Dequeue() *Transaction {
	cs := q.pool.k.enterCritical()
	defer cs.exit()
	tx, _ := q.list.PopHead()
	return tx
}

// Finish returns tx to the pool.
func (q *TransactionQueue) Finish(tx *Transaction) {
	cs := q.pool.k.enterCritical()
	defer cs.exit()
	tx.Set(0, nil)
	q.pool.free.Add(tx)
}

// Len returns the number of queued transactions.
func (q *TransactionQueue) Len() int { return q.list.Len() }

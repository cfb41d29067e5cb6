package tef

import (
	"sync"
	"time"
)

// PendingTransaction is an approved authorization that has not yet been
// confirmed or reversed. Network, NSU and Token come from the engine verbatim
// and must be echoed back on the matching CNF/NCN request.
type PendingTransaction struct {
	RequestID   string
	SaleID      string
	Kind        OperationKind
	AmountCents int64
	Document    string
	Network     string
	NSU         string
	Token       string
	MultiTx     bool
	ApprovedAt  time.Time
}

// Ledger holds the approved-but-unresolved transactions of the current sale.
// With split payments a sale accumulates several entries before a single
// batch confirm or reverse resolves them all.
type Ledger struct {
	mu      sync.Mutex
	entries []PendingTransaction
	multi   bool
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Add(tx PendingTransaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, tx)
	if tx.MultiTx {
		l.multi = true
	}
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Pending returns a snapshot of the unresolved entries in approval order.
func (l *Ledger) Pending() []PendingTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]PendingTransaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// OutstandingBalance is what remains unpaid of the sale total after the
// already-approved entries.
func (l *Ledger) OutstandingBalance(saleTotalCents int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := saleTotalCents
	for _, tx := range l.entries {
		balance -= tx.AmountCents
	}
	if balance < 0 {
		balance = 0
	}
	return balance
}

// MultiInstrument reports whether the sale ever carried the
// multiple-transactions flag. Once set it stays set until the ledger is
// emptied, because every confirm/reverse of such a sale must carry the flag
// too.
func (l *Ledger) MultiInstrument() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.multi
}

func (l *Ledger) MarkMultiInstrument() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.multi = true
}

func (l *Ledger) FindByNSU(nsu string) (PendingTransaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, tx := range l.entries {
		if tx.NSU == nsu {
			return tx, true
		}
	}
	return PendingTransaction{}, false
}

// Remove drops the entry with the given NSU, returning whether it existed.
// The multi flag is cleared once the last entry is gone.
func (l *Ledger) Remove(nsu string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, tx := range l.entries {
		if tx.NSU == nsu {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			if len(l.entries) == 0 {
				l.multi = false
			}
			return true
		}
	}
	return false
}

// DropAll empties the ledger without resolving anything at the engine and
// returns what was dropped. Escape hatch only: the engine still considers
// those transactions open, so callers must warn loudly.
func (l *Ledger) DropAll() []PendingTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := l.entries
	l.entries = nil
	l.multi = false
	return dropped
}

package lead

import (
	"sync"

	"github.com/sells-group/lead-cli/internal/model"
)

// Assembler accumulates accepted leads for one run, dropping any lead whose
// dedup key was already seen. Leads keep first-seen order across targets.
type Assembler struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	leads      []model.Lead
	duplicates int
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{seen: make(map[string]struct{})}
}

// Add records l unless a lead with the same key was added before. It
// reports whether l was kept.
func (a *Assembler) Add(l model.Lead) bool {
	key := l.Key()

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seen[key]; dup {
		a.duplicates++
		return false
	}
	a.seen[key] = struct{}{}
	a.leads = append(a.leads, l)
	return true
}

// Leads returns a copy of the kept leads in insertion order.
func (a *Assembler) Leads() []model.Lead {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Lead, len(a.leads))
	copy(out, a.leads)
	return out
}

// Len returns the number of kept leads.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.leads)
}

// Duplicates returns how many leads Add has rejected.
func (a *Assembler) Duplicates() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duplicates
}

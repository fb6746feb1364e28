package diag

import (
	"math"

	"fortio.org/safecast"
)

type Bag struct {
	items   []Diagnostic
	max     uint16
	dropped [SevError + 1]int
}

// NewBag создаёт Bag с лимитом max; max <= 0 или больше uint16 означает максимальный лимит.
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil || limit == 0 {
		limit = math.MaxUint16
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(int(limit), 64)),
		max:   limit,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
// Отброшенные диагностики всё равно учитываются в HasErrors/HasWarnings/Count.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		if d.Severity <= SevError {
			b.dropped[d.Severity]++
		}
		return false
	}
	b.items = append(b.items, d)
	return true
}

// AddAll adds every diagnostic in order, honouring the limit.
func (b *Bag) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		b.Add(d)
	}
}

// Count returns the number of diagnostics with exactly the given severity, dropped ones included.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity == sev {
			n++
		}
	}
	if sev <= SevError {
		n += b.dropped[sev]
	}
	return n
}

// Dropped returns how many diagnostics were rejected by the limit.
func (b *Bag) Dropped() int {
	n := 0
	for _, c := range b.dropped {
		n += c
	}
	return n
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	return b.Count(SevError) > 0
}

// HasWarnings возвращает true, если есть хотя бы одна диагностика с Severity >= Warning
func (b *Bag) HasWarnings() bool {
	return b.Count(SevWarning) > 0 || b.HasErrors()
}

// HasAtLeast reports whether any diagnostic is at or above sev.
func (b *Bag) HasAtLeast(sev Severity) bool {
	for s := sev; s <= SevError; s++ {
		if b.Count(s) > 0 {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Diagnostic {
	return b.items
}

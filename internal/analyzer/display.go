package analyzer

import "sync"

// Placeholder values shown before a result arrives.
const (
	PlaceholderHz    = "-- Hz"
	PlaceholderSpeed = "-- km/h"
	PlaceholderText  = "--"
	PlaceholderPct   = "--%"
	PlaceholderTime  = "-- s"
	PlaceholderBPM   = "-- bpm"
	PlaceholderMs    = "-- ms"
)

// Field is one labelled value of the result panel.
type Field struct {
	Label       string
	Value       string
	Placeholder string
}

// Display is the ordered set of result fields of one page. It is read by the
// view while controllers write to it from request goroutines.
type Display struct {
	mu     sync.RWMutex
	fields []Field
	index  map[string]int
}

// NewDisplay returns a display whose fields start at their placeholders.
func NewDisplay(fields ...Field) *Display {
	d := &Display{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		f.Value = f.Placeholder
		d.index[f.Label] = len(d.fields)
		d.fields = append(d.fields, f)
	}
	return d
}

// Set updates a field. Unknown labels are ignored.
func (d *Display) Set(label, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := d.index[label]; ok {
		d.fields[i].Value = value
	}
}

// Get returns a field's current value.
func (d *Display) Get(label string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i, ok := d.index[label]; ok {
		return d.fields[i].Value
	}
	return ""
}

// Fields returns a copy of the fields in display order.
func (d *Display) Fields() []Field {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Field(nil), d.fields...)
}

// Reset restores every placeholder.
func (d *Display) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.fields {
		d.fields[i].Value = d.fields[i].Placeholder
	}
}

// Filled reports whether any field holds a value.
func (d *Display) Filled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, f := range d.fields {
		if f.Value != f.Placeholder {
			return true
		}
	}
	return false
}

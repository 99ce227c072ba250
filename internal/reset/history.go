package reset

import "time"

// Entry is one performed reset.
type Entry struct {
	Kind         Kind      `json:"kind"`
	Sequence     int       `json:"sequence"` // 1-based position within its kind
	Timestamp    time.Time `json:"timestamp"`
	LevelAtReset int       `json:"level_at_reset"`
	Reward       Reward    `json:"reward"`
}

// History is an append-only reset log with running totals.
type History struct {
	entries     []Entry
	totalNormal int
	totalGrand  int
	hasMaster   bool
}

func (h *History) Append(e Entry) {
	h.entries = append(h.entries, e)
	switch e.Kind {
	case KindNormal:
		h.totalNormal++
	case KindGrand:
		h.totalGrand++
	case KindMaster:
		h.hasMaster = true
	}
}

func (h *History) Len() int { return len(h.entries) }

// Entries returns a copy in the order they were appended.
func (h *History) Entries() []Entry { return append([]Entry(nil), h.entries...) }

// Last returns the most recent entry.
func (h *History) Last() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// TotalNormal counts every normal reset ever performed, including those
// whose counter was later cleared by a grand reset.
func (h *History) TotalNormal() int { return h.totalNormal }
func (h *History) TotalGrand() int  { return h.totalGrand }
func (h *History) HasMaster() bool  { return h.hasMaster }

func historyFrom(entries []Entry) History {
	var h History
	for _, e := range entries {
		h.Append(e)
	}
	return h
}

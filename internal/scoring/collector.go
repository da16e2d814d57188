package scoring

import "sync"

// Collector accumulates answers keyed by question id until submission.
type Collector struct {
	mu      sync.RWMutex
	answers map[uint]Answer
}

func NewCollector() *Collector {
	return &Collector{answers: make(map[uint]Answer)}
}

// NewCollectorFrom seeds a collector, e.g. when resuming a stored attempt.
func NewCollectorFrom(answers map[uint]Answer) *Collector {
	c := NewCollector()
	for id, a := range answers {
		c.answers[id] = a.clone()
	}
	return c
}

// Set replaces any prior answer for the question.
func (c *Collector) Set(questionID uint, answer Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[questionID] = answer.clone()
}

// SetChoice records a single-choice selection, replacing the previous one.
func (c *Collector) SetChoice(questionID uint, label string) {
	c.Set(questionID, Answer{Selected: []string{label}})
}

// SetText records free text for fill and essay questions.
func (c *Collector) SetText(questionID uint, text string) {
	c.Set(questionID, Answer{Text: text})
}

// Toggle adds label to the question's selection, or removes it if already selected.
func (c *Collector) Toggle(questionID uint, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.answers[questionID]
	selected := make([]string, 0, len(current.Selected)+1)
	removed := false
	for _, l := range current.Selected {
		if l == label {
			removed = true
			continue
		}
		selected = append(selected, l)
	}
	if !removed {
		selected = append(selected, label)
	}
	c.answers[questionID] = Answer{Selected: selected}
}

func (c *Collector) Get(questionID uint) (Answer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.answers[questionID]
	if !ok {
		return Answer{}, false
	}
	return a.clone(), true
}

// Snapshot returns a copy of every recorded answer.
func (c *Collector) Snapshot() map[uint]Answer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint]Answer, len(c.answers))
	for id, a := range c.answers {
		out[id] = a.clone()
	}
	return out
}

func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.answers)
}

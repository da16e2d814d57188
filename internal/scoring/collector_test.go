package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector_LastWriteWins(t *testing.T) {
	c := NewCollector()
	c.SetChoice(1, "A")
	c.SetChoice(1, "C")
	c.SetText(2, "first")
	c.SetText(2, "second")

	a, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, []string{"C"}, a.Selected)

	a, _ = c.Get(2)
	assert.Equal(t, "second", a.Text)
}

func TestCollector_ToggleAddsAndRemoves(t *testing.T) {
	c := NewCollector()
	c.Toggle(3, "B")
	c.Toggle(3, "C")
	c.Toggle(4, "A")
	c.Toggle(3, "B")

	a, _ := c.Get(3)
	assert.Equal(t, []string{"C"}, a.Selected)

	other, _ := c.Get(4)
	assert.Equal(t, []string{"A"}, other.Selected)
}

func TestCollector_SnapshotIsDetached(t *testing.T) {
	c := NewCollector()
	c.Toggle(1, "A")

	snap := c.Snapshot()
	c.Toggle(1, "B")
	snap[1].Selected[0] = "Z"

	assert.Equal(t, []string{"Z"}, snap[1].Selected)
	a, _ := c.Get(1)
	assert.Equal(t, []string{"A", "B"}, a.Selected)
	assert.Equal(t, 1, c.Len())
}

func TestNewCollectorFrom(t *testing.T) {
	seed := map[uint]Answer{5: {Text: "paris"}}
	c := NewCollectorFrom(seed)
	seed[5] = Answer{Text: "changed"}

	a, ok := c.Get(5)
	assert.True(t, ok)
	assert.Equal(t, "paris", a.Text)
}

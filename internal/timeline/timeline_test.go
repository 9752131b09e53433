package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/visionguard/visionguard-monitor/internal/models"
)

func TestTimeline_PrependNewestFirst(t *testing.T) {
	tl := New(5)

	for i := 0; i < 3; i++ {
		tl.prepend(models.TimelineEntry{
			ID:      fmt.Sprintf("e%d", i),
			Kind:    models.TimelineAlert,
			Text:    fmt.Sprintf("alert %d", i),
			AddedAt: time.Now(),
		})
	}

	entries := tl.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "e2", entries[0].ID)
	assert.Equal(t, "e1", entries[1].ID)
	assert.Equal(t, "e0", entries[2].ID)
}

func TestTimeline_CapEvictsOldest(t *testing.T) {
	tl := New(10)

	for i := 0; i < 15; i++ {
		tl.prepend(models.TimelineEntry{ID: fmt.Sprintf("e%d", i)})
	}

	entries := tl.Entries()
	assert.Len(t, entries, 10)
	// The five oldest fell off the tail; arrival order is preserved.
	assert.Equal(t, "e14", entries[0].ID)
	assert.Equal(t, "e5", entries[9].ID)
}

func TestTimeline_DefaultCap(t *testing.T) {
	assert.Equal(t, DefaultCap, New(0).Cap())
	assert.Equal(t, DefaultCap, New(-3).Cap())
	assert.Equal(t, 25, New(25).Cap())
}

func TestTimeline_EntriesReturnsCopy(t *testing.T) {
	tl := New(5)
	tl.prepend(models.TimelineEntry{ID: "a", Text: "original"})

	entries := tl.Entries()
	entries[0].Text = "mutated"

	assert.Equal(t, "original", tl.Entries()[0].Text)
}

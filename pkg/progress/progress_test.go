package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledTrackerIsSilent(t *testing.T) {
	var out bytes.Buffer
	tracker := NewTracker(&out, false)

	tracker.Begin(12, "tt_content")
	tracker.Advance(5)
	tracker.End()

	assert.Empty(t, out.String())
}

func TestTrackerIgnoresEmptyListings(t *testing.T) {
	var out bytes.Buffer
	tracker := NewTracker(&out, true)

	tracker.Begin(0, "tt_content")
	tracker.Advance(0)
	tracker.End()

	assert.Empty(t, out.String())
}

func TestTrackerRendersBar(t *testing.T) {
	var out bytes.Buffer
	tracker := NewTracker(&out, true)

	tracker.Begin(12, "tt_content")
	tracker.Advance(5)
	tracker.Advance(5)
	tracker.Advance(2)
	tracker.End()

	assert.Contains(t, out.String(), "tt_content")
	assert.Nil(t, tracker.bar)
}

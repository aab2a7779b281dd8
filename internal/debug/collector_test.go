package debug

import (
	"testing"

	"github.com/socialnavi/pedtrack/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_DisabledIsNoop(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.IsEnabled())

	c.BeginFrame(1, "a")
	c.RecordAssociation(0, 0, 1.5, tracking.OutcomeMatched)
	assert.Nil(t, c.Emit())
}

func TestCollector_EmitAndReset(t *testing.T) {
	c := NewCollector()
	c.SetEnabled(true)

	// Records before BeginFrame are dropped.
	c.RecordAssociation(0, 0, 1, tracking.OutcomeMatched)
	assert.Nil(t, c.Emit())

	c.BeginFrame(7, "000007")
	c.RecordAssociation(3, 1, 5.0, tracking.OutcomeMatched)
	c.RecordAssociation(-1, 0, 1e6, tracking.OutcomeNew)

	frame := c.Emit()
	require.NotNil(t, frame)
	assert.Equal(t, uint64(7), frame.FrameID)
	assert.Equal(t, "000007", frame.Name)
	assert.Equal(t, []AssociationRecord{
		{TrackID: 3, Detection: 1, Cost: 5.0, Outcome: tracking.OutcomeMatched},
		{TrackID: -1, Detection: 0, Cost: 1e6, Outcome: tracking.OutcomeNew},
	}, frame.Associations)

	assert.Nil(t, c.Emit(), "emit clears the frame")

	c.BeginFrame(8, "")
	c.RecordAssociation(0, 0, 1, tracking.OutcomeMatched)
	c.Reset()
	assert.Nil(t, c.Emit())
}

func TestCollector_WithTracker(t *testing.T) {
	c := NewCollector()
	c.SetEnabled(true)

	tr := tracking.NewTracker(tracking.DefaultTrackerConfig())
	tr.DebugCollector = c

	box := func(x, y float64) tracking.Observation {
		return tracking.Observation{Box: tracking.BoxAround(tracking.Point{X: x, Y: y}, 20, 40)}
	}

	c.BeginFrame(1, "f1")
	require.NoError(t, tr.Update([]tracking.Observation{box(100, 100), box(400, 100)}))
	// The first frame spawns without matching.
	frame := c.Emit()
	require.NotNil(t, frame)
	assert.Empty(t, frame.Associations)

	c.BeginFrame(2, "f2")
	require.NoError(t, tr.Update([]tracking.Observation{box(102, 101)}))
	frame = c.Emit()
	require.NotNil(t, frame)
	require.Len(t, frame.Associations, 2)

	byTrack := map[int]AssociationRecord{}
	for _, rec := range frame.Associations {
		byTrack[rec.TrackID] = rec
	}
	assert.Equal(t, tracking.OutcomeMatched, byTrack[0].Outcome)
	assert.Equal(t, 0, byTrack[0].Detection)
	assert.Equal(t, tracking.OutcomeNoMatch, byTrack[1].Outcome)
	assert.Equal(t, -1, byTrack[1].Detection, "padding column")
	assert.Equal(t, 1e6, byTrack[1].Cost)
}

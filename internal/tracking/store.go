package tracking

import (
	"fmt"
	"sort"
)

// UnknownTrackError reports a lookup of a track ID that is not in the store.
// The tracker only looks up IDs it has just read from the store, so this
// error means the bookkeeping is broken and the run should stop.
type UnknownTrackError struct {
	ID int
}

func (e *UnknownTrackError) Error() string {
	return fmt.Sprintf("unknown track id %d", e.ID)
}

// Store is an arena of tracks indexed by stable integer ID. IDs are handed
// out in increasing order and never reused. Store is not safe for concurrent
// use; Tracker serialises access to it.
type Store struct {
	tracks map[int]*Track
	nextID int
}

// NewStore creates an empty store whose first track gets ID 0.
func NewStore() *Store {
	return &Store{tracks: make(map[int]*Track)}
}

// Add creates a track from obs and returns it.
func (s *Store) Add(obs Observation) *Track {
	t := newTrack(s.nextID, obs)
	s.tracks[t.ID] = t
	s.nextID++
	return t
}

// Get returns the live track with the given ID.
func (s *Store) Get(id int) (*Track, error) {
	t, ok := s.tracks[id]
	if !ok {
		return nil, &UnknownTrackError{ID: id}
	}
	return t, nil
}

// Remove deletes a track.
func (s *Store) Remove(id int) error {
	if _, ok := s.tracks[id]; !ok {
		return &UnknownTrackError{ID: id}
	}
	delete(s.tracks, id)
	return nil
}

// Len returns the number of live tracks.
func (s *Store) Len() int { return len(s.tracks) }

// NextID returns the ID the next Add will assign.
func (s *Store) NextID() int { return s.nextID }

// IDs returns live track IDs in creation order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Snapshot returns copies of all live tracks in creation order.
func (s *Store) Snapshot() []Track {
	ids := s.IDs()
	out := make([]Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.tracks[id])
	}
	return out
}

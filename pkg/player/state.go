/*
Podcastr
Copyright (C) 2024 The Podcastr Authors

This file is part of Podcastr.

Podcastr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Podcastr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Podcastr.  If not, see <http://www.gnu.org/licenses/>.
*/

package player

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

const NotificationChanged = "player.changed"

var ErrIndexOutOfRange = errors.New("episode index out of range")

type Notification struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Snapshot is a read-only copy of the player state including the derived
// navigation flags.
type Snapshot struct {
	EpisodeList  []Episode `json:"episodeList"`
	CurrentIndex int       `json:"currentIndex"`
	IsPlaying    bool      `json:"isPlaying"`
	IsLooping    bool      `json:"isLooping"`
	IsShuffling  bool      `json:"isShuffling"`
	HasNext      bool      `json:"hasNext"`
	HasPrevious  bool      `json:"hasPrevious"`
}

// Current returns the episode under the cursor, if the queue isn't empty.
func (s Snapshot) Current() (Episode, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.EpisodeList) {
		return Episode{}, false
	}
	return s.EpisodeList[s.CurrentIndex], true
}

// State is the single source of truth for what is queued and whether it's
// playing. All mutations go through its methods.
type State struct {
	mu           sync.RWMutex
	episodeList  []Episode
	currentIndex int
	isPlaying    bool
	isLooping    bool
	isShuffling  bool
	intn         func(n int) int
	ns           chan Notification
}

type Option func(*State)

// WithRand sets the random source used for shuffle-advance.
func WithRand(r *rand.Rand) Option {
	return func(s *State) {
		s.intn = r.Intn
	}
}

// WithNotifications sets the channel every state change is published on.
// If the channel is full the oldest queued notification is discarded, so
// the latest state always gets through.
func WithNotifications(ns chan Notification) Option {
	return func(s *State) {
		s.ns = ns
	}
}

func NewState(opts ...Option) *State {
	s := &State{
		episodeList: make([]Episode, 0),
		intn:        rand.New(rand.NewSource(time.Now().UnixNano())).Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *State) hasPrevious() bool {
	return s.currentIndex > 0
}

func (s *State) hasNext() bool {
	return s.isShuffling || s.currentIndex+1 < len(s.episodeList)
}

func (s *State) snapshot() Snapshot {
	return Snapshot{
		EpisodeList:  slices.Clone(s.episodeList),
		CurrentIndex: s.currentIndex,
		IsPlaying:    s.isPlaying,
		IsLooping:    s.isLooping,
		IsShuffling:  s.isShuffling,
		HasNext:      s.hasNext(),
		HasPrevious:  s.hasPrevious(),
	}
}

// commit publishes the new state and releases the write lock. Must be
// called with mu held. Sending under the lock keeps notifications in the
// same order as the mutations.
func (s *State) commit() Snapshot {
	defer s.mu.Unlock()

	snap := s.snapshot()
	if s.ns != nil {
		s.publish(Notification{Method: NotificationChanged, Params: snap})
	}

	return snap
}

// publish never blocks. Must be called with mu held.
func (s *State) publish(n Notification) {
	select {
	case s.ns <- n:
		return
	default:
	}

	select {
	case <-s.ns:
		log.Warn().Msg("notification channel full, dropped oldest player update")
	default:
	}

	select {
	case s.ns <- n:
	default:
		log.Warn().Msg("notification channel blocked, dropping player update")
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *State) current() (Episode, bool) {
	if len(s.episodeList) == 0 {
		return Episode{}, false
	}
	return s.episodeList[s.currentIndex], true
}

func (s *State) CurrentEpisode() (Episode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current()
}

func (s *State) HasNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasNext()
}

func (s *State) HasPrevious() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPrevious()
}

// Play replaces the queue with a single episode and starts playing it.
func (s *State) Play(episode Episode) Snapshot {
	s.mu.Lock()
	s.episodeList = []Episode{episode}
	s.currentIndex = 0
	s.isPlaying = true
	return s.commit()
}

// PlayList replaces the queue with a copy of list and starts playing the
// episode at index. The state is left untouched if index isn't inside list.
func (s *State) PlayList(list []Episode, index int) (Snapshot, error) {
	if index < 0 || index >= len(list) {
		return s.Snapshot(), ErrIndexOutOfRange
	}

	s.mu.Lock()
	s.episodeList = slices.Clone(list)
	s.currentIndex = index
	s.isPlaying = true
	return s.commit(), nil
}

// Step is a cursor movement.
type Step int

const (
	StepNext Step = iota
	StepPrevious
	StepEnded
)

// Move applies step and reports whether it changed which episode is under
// the cursor. Both are decided under the same lock.
func (s *State) Move(step Step) (Snapshot, bool) {
	s.mu.Lock()

	before, hadBefore := s.current()
	beforeIndex := s.currentIndex

	switch step {
	case StepNext:
		s.playNext()
	case StepPrevious:
		s.playPrevious()
	case StepEnded:
		s.ended()
	}

	after, ok := s.current()
	changed := ok && (!hadBefore || beforeIndex != s.currentIndex || after != before)

	return s.commit(), changed
}

// PlayNext advances the cursor. While shuffling it jumps to a uniformly
// random index, which may be the current one.
func (s *State) PlayNext() Snapshot {
	snap, _ := s.Move(StepNext)
	return snap
}

func (s *State) playNext() {
	if len(s.episodeList) == 0 {
		return
	}
	if s.isShuffling {
		s.currentIndex = s.intn(len(s.episodeList))
	} else if s.hasNext() {
		s.currentIndex++
	}
}

func (s *State) PlayPrevious() Snapshot {
	snap, _ := s.Move(StepPrevious)
	return snap
}

func (s *State) playPrevious() {
	if s.hasPrevious() {
		s.currentIndex--
	}
}

func (s *State) ToggleLoop() Snapshot {
	s.mu.Lock()
	s.isLooping = !s.isLooping
	return s.commit()
}

func (s *State) TogglePlay() Snapshot {
	s.mu.Lock()
	s.isPlaying = !s.isPlaying
	return s.commit()
}

func (s *State) ToggleShuffle() Snapshot {
	s.mu.Lock()
	s.isShuffling = !s.isShuffling
	return s.commit()
}

// SetPlayingState records whether the media element is actually playing.
func (s *State) SetPlayingState(playing bool) Snapshot {
	s.mu.Lock()
	s.isPlaying = playing
	return s.commit()
}

// Ended handles the media element finishing the current episode. Looping
// episodes are repeated by the media element itself.
func (s *State) Ended() Snapshot {
	snap, _ := s.Move(StepEnded)
	return snap
}

func (s *State) ended() {
	switch {
	case s.isLooping:
	case s.hasNext():
		s.playNext()
	default:
		s.episodeList = make([]Episode, 0)
		s.currentIndex = 0
	}
}

func (s *State) ClearPlayerState() Snapshot {
	s.mu.Lock()
	s.episodeList = make([]Episode, 0)
	s.currentIndex = 0
	return s.commit()
}

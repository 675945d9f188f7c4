// Package tracker estimates how much of a third-party-hosted video a
// user has watched and unlocks step progression once the configured
// completion threshold is reached. Tracking is best effort: an unknown
// provider or a player that fails to attach never blocks the user.
package tracker

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"
)

// ProviderKind identifies the playback API family of a video URL.
type ProviderKind int

const (
	ProviderUnknown ProviderKind = iota
	// ProviderYouTube style players expose current time and duration and
	// are observed by polling.
	ProviderYouTube
	// ProviderVimeo style players push periodic timeupdate events
	// carrying the watched fraction.
	ProviderVimeo
)

// DefaultThreshold is the completion percentage used when a step does
// not configure one.
const DefaultThreshold = 80

// PollInterval is the sampling cadence for polling-family players.
const PollInterval = time.Second

// DetectProvider classifies a video URL by its host.
func DetectProvider(rawURL string) ProviderKind {
	switch {
	case strings.Contains(rawURL, "youtube.com"), strings.Contains(rawURL, "youtu.be"):
		return ProviderYouTube
	case strings.Contains(rawURL, "vimeo.com"):
		return ProviderVimeo
	default:
		return ProviderUnknown
	}
}

// Player is the polling-family playback surface.
type Player interface {
	// AttachReady registers a callback fired once playback can be
	// observed.
	AttachReady(onReady func()) error
	CurrentTime() (float64, error)
	Duration() (float64, error)
}

// EventPlayer is the event-family playback surface; it pushes watched
// percentage samples.
type EventPlayer interface {
	OnProgress(fn func(percent float64)) error
}

// PlayerSource builds a player for a video URL. Construction errors mean
// the embed failed to initialize.
type PlayerSource interface {
	Polling(videoURL string) (Player, error)
	Events(videoURL string) (EventPlayer, error)
}

// Reporter pushes accumulated watch time to the server. Implementations
// are best effort and must never surface errors into playback.
type Reporter interface {
	ReportVideoTime(flowID, stepID uint, seconds int)
}

// Tracker accumulates watch progress for one step's video as a monotonic
// high-water mark and fires a one-shot unlock when the threshold is
// reached.
type Tracker struct {
	flowID    uint
	stepID    uint
	threshold float64

	reporter Reporter
	onUnlock func()

	pollEvery time.Duration

	mu       sync.Mutex
	progress float64 // high-water mark, percent
	seconds  int     // high-water mark, watched seconds
	met      bool
	stop     chan struct{}
}

// New builds a tracker for a step. threshold is a percentage (0-100);
// values outside that range fall back to DefaultThreshold. onUnlock runs
// exactly once, when the requirement first becomes met.
func New(flowID, stepID uint, threshold int, reporter Reporter, onUnlock func()) *Tracker {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Tracker{
		flowID:    flowID,
		stepID:    stepID,
		threshold: float64(threshold),
		reporter:  reporter,
		onUnlock:  onUnlock,
		pollEvery: PollInterval,
		stop:      make(chan struct{}),
	}
}

// Record feeds one watched-percentage sample into the accumulator. The
// stored progress never decreases, so seek-backs and out-of-order
// samples are harmless. Crossing the threshold unlocks progression once
// and pushes the accumulated seconds to the server.
func (t *Tracker) Record(percent float64) {
	t.recordSample(percent, int(percent))
}

// RecordSample feeds a current-time/duration observation from a
// polling-family player.
func (t *Tracker) RecordSample(currentTime, duration float64) {
	if duration <= 0 {
		return
	}
	percent := currentTime / duration * 100
	t.recordSample(percent, int(currentTime))
}

func (t *Tracker) recordSample(percent float64, seconds int) {
	t.mu.Lock()
	if percent > t.progress {
		t.progress = percent
	}
	if seconds > t.seconds {
		t.seconds = seconds
	}
	unlock := !t.met && t.progress >= t.threshold
	if unlock {
		t.met = true
	}
	reportSeconds := t.seconds
	t.mu.Unlock()

	if unlock {
		t.unlocked()
		if t.reporter != nil {
			t.reporter.ReportVideoTime(t.flowID, t.stepID, reportSeconds)
		}
	}
}

// FailOpen marks the requirement as met without any telemetry. Used when
// the provider is unrecognized or its embed fails to initialize: a
// tracking failure must never trap the user.
func (t *Tracker) FailOpen() {
	t.mu.Lock()
	unlock := !t.met
	t.met = true
	t.mu.Unlock()

	if unlock {
		t.unlocked()
	}
}

func (t *Tracker) unlocked() {
	// Stop the polling loop; further samples can no longer re-trigger
	// the unlock.
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	if t.onUnlock != nil {
		t.onUnlock()
	}
}

// RequirementMet reports whether the threshold has been reached (or the
// tracker failed open).
func (t *Tracker) RequirementMet() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.met
}

// Progress returns the raw accumulated percentage.
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// DisplayProgress returns the accumulated percentage clamped to 100 for
// rendering.
func (t *Tracker) DisplayProgress() float64 {
	return math.Min(t.Progress(), 100)
}

// Seconds returns the accumulated watched seconds.
func (t *Tracker) Seconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

// Watch attaches the tracker to the video's player and observes playback
// until the requirement is met or ctx is cancelled. Unknown providers
// and attach failures fail open.
func (t *Tracker) Watch(ctx context.Context, videoURL string, players PlayerSource) {
	switch DetectProvider(videoURL) {
	case ProviderYouTube:
		player, err := players.Polling(videoURL)
		if err != nil {
			t.FailOpen()
			return
		}
		if err := player.AttachReady(func() {
			go t.poll(ctx, player)
		}); err != nil {
			t.FailOpen()
		}
	case ProviderVimeo:
		player, err := players.Events(videoURL)
		if err != nil {
			t.FailOpen()
			return
		}
		if err := player.OnProgress(t.Record); err != nil {
			t.FailOpen()
		}
	default:
		t.FailOpen()
	}
}

// poll samples the player at a fixed cadence and stops once the
// requirement is met.
func (t *Tracker) poll(ctx context.Context, player Player) {
	ticker := time.NewTicker(t.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			currentTime, err := player.CurrentTime()
			if err != nil {
				continue // player not ready yet
			}
			duration, err := player.Duration()
			if err != nil {
				continue
			}
			t.RecordSample(currentTime, duration)
		}
	}
}

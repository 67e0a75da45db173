package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"go-hep.org/x/hep/hbook"

	"github.com/banshee-data/femtoscopy/internal/config"
	"github.com/banshee-data/femtoscopy/internal/femto/grouping"
	"github.com/banshee-data/femtoscopy/internal/femto/hist"
	"github.com/banshee-data/femtoscopy/internal/femto/mixer"
	"github.com/banshee-data/femtoscopy/internal/femto/pair"
	"github.com/banshee-data/femtoscopy/internal/femto/selection"
	"github.com/banshee-data/femtoscopy/internal/femto/track"
	"github.com/banshee-data/femtoscopy/internal/monitoring"
	"github.com/banshee-data/femtoscopy/internal/timeutil"
)

// Resolution histogram range, MeV/c.
const (
	resolutionBins = 100
	resolutionMax  = 50.0
)

// EventSource yields events until it returns io.EOF.
type EventSource interface {
	Next() (*track.Event, error)
}

// Stats are the running totals of an Analysis.
type Stats struct {
	EventsSeen     int
	EventsAccepted int
	// Rejected counts events per failing cut.
	Rejected map[selection.Verdict]int

	SignalPairs     int
	BackgroundPairs int
	RejectedPairs   int
	TruthPairs      int
}

// Analysis owns the selector, mixer and accumulator of one run. It is not
// safe for concurrent use.
type Analysis struct {
	selector *selection.EventSelector
	mixer    *mixer.Mixer[grouping.EventKey, grouping.PairKey]
	acc      *hist.Accumulator[grouping.PairKey]

	// resolution collects reconstructed minus generated QInv of signal
	// pairs with truth on both tracks.
	resolution *hbook.H1D

	clock         timeutil.Clock
	start         time.Time
	progressEvery int

	eventsSeen     int
	eventsAccepted int
	truthPairs     int
	rejected       map[selection.Verdict]int
}

// New wires an Analysis from cfg. rng seeds the mixer's representative
// choice; clock times the progress log. Either may be nil.
func New(cfg *config.FemtoConfig, rng *rand.Rand, clock timeutil.Clock) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	grouper, err := grouping.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	reject, err := pair.NewRejector(cfg.GetRejectionMode(), cfg.GetWireCutoff(), cfg.GetRejectionFraction())
	if err != nil {
		return nil, err
	}
	if cfg.GetRejectDegenerate() {
		reject = pair.Any(reject, pair.RejectDegenerate)
	}

	m, err := mixer.New(mixer.Config[grouping.EventKey, grouping.PairKey]{
		BufferSize:        cfg.GetBufferSize(),
		WaitForFullBuffer: cfg.GetWaitForFullBuffer(),
		EventKey:          grouper.EventKey,
		PairKey:           grouper.PairKey,
		Reject:            reject,
		Rand:              rng,
	})
	if err != nil {
		return nil, err
	}

	acc, err := hist.New[grouping.PairKey](cfg.GetQInvBins(), cfg.GetQInvMax())
	if err != nil {
		return nil, err
	}

	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Analysis{
		selector:      selection.FromConfig(cfg),
		mixer:         m,
		acc:           acc,
		resolution:    hbook.NewH1D(resolutionBins, -resolutionMax, resolutionMax),
		clock:         clock,
		start:         clock.Now(),
		progressEvery: cfg.GetProgressEvery(),
		rejected:      make(map[selection.Verdict]int),
	}, nil
}

// Process runs one event through the chain: cuts, same-event pairs,
// buffer update, mixed-event pairs. The buffer holds the event's own
// representative before mixing, and the mixer skips it.
func (a *Analysis) Process(ev *track.Event) selection.Verdict {
	a.eventsSeen++
	defer a.logProgress()

	verdict := a.selector.Select(ev)
	if verdict != selection.Accepted {
		a.rejected[verdict]++
		return verdict
	}
	a.eventsAccepted++

	signal := a.mixer.AddEvent(ev)
	a.acc.FillSignal(signal)
	for _, ps := range signal {
		for _, p := range ps {
			if d, ok := TruthQInvResolution(p); ok {
				a.resolution.Fill(d, 1)
				a.truthPairs++
			}
		}
	}

	a.acc.FillBackground(a.mixer.GetSimilarPairs(ev))
	return verdict
}

// Run processes every event of src. It stops at io.EOF, on the first read
// error, or when ctx is done.
func (a *Analysis) Run(ctx context.Context, src EventSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			a.logSummary()
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		a.Process(ev)
	}
}

func (a *Analysis) logProgress() {
	if a.progressEvery <= 0 || a.eventsSeen%a.progressEvery != 0 {
		return
	}
	c := a.mixer.Counters()
	monitoring.Logf("processed %d events (%d accepted), %d signal / %d background pairs, %.1f events/s",
		a.eventsSeen, a.eventsAccepted, c.SignalPairs, c.BackgroundPairs,
		timeutil.Rate(a.eventsSeen, a.clock.Since(a.start)))
}

func (a *Analysis) logSummary() {
	s := a.Stats()
	monitoring.Logf("done: %d events, %d accepted, rejected %v; %d signal, %d background, %d cut pairs",
		s.EventsSeen, s.EventsAccepted, s.Rejected, s.SignalPairs, s.BackgroundPairs, s.RejectedPairs)
}

// Stats returns a snapshot of the running totals.
func (a *Analysis) Stats() Stats {
	c := a.mixer.Counters()
	rejected := make(map[selection.Verdict]int, len(a.rejected))
	for k, v := range a.rejected {
		rejected[k] = v
	}
	return Stats{
		EventsSeen:      a.eventsSeen,
		EventsAccepted:  a.eventsAccepted,
		Rejected:        rejected,
		SignalPairs:     c.SignalPairs,
		BackgroundPairs: c.BackgroundPairs,
		RejectedPairs:   c.Rejected,
		TruthPairs:      a.truthPairs,
	}
}

// Accumulator returns the per-bin histograms filled so far.
func (a *Analysis) Accumulator() *hist.Accumulator[grouping.PairKey] {
	return a.acc
}

// Resolution returns the QInv resolution histogram.
func (a *Analysis) Resolution() *hbook.H1D {
	return a.resolution
}

// Mixer exposes the mixer for buffer inspection.
func (a *Analysis) Mixer() *mixer.Mixer[grouping.EventKey, grouping.PairKey] {
	return a.mixer
}

// TruthQInvResolution returns the reconstructed minus the generated QInv of
// p. ok is false unless both tracks carry truth.
func TruthQInvResolution(p *pair.Pair) (float64, bool) {
	truth, ok := p.Truth()
	if !ok {
		return 0, false
	}
	return p.QInv() - truth.QInv(), true
}

package analysis

import (
	"fmt"

	"github.com/banshee-data/femtoscopy/internal/db"
	"github.com/banshee-data/femtoscopy/internal/femto/hist"
)

// ResolutionBinKey is the bin key under which the QInv resolution
// histogram is stored.
const ResolutionBinKey = "resolution"

// Save writes the bin summaries, every signal and background histogram and
// the run totals under runID, then marks the run finished.
func (a *Analysis) Save(store *db.DB, runID string) error {
	for _, key := range a.acc.Bins() {
		set := a.acc.Set(key)
		name := key.String()
		if err := store.SaveBin(runID, db.BinSummary{
			Key:             name,
			SignalPairs:     set.SignalPairs,
			BackgroundPairs: set.BackgroundPairs,
		}); err != nil {
			return err
		}
		for _, k := range hist.Kinds {
			if err := store.SaveHistogram(runID, name, k.String(), db.SampleSignal, set.Signal(k)); err != nil {
				return fmt.Errorf("bin %s: %w", name, err)
			}
			if err := store.SaveHistogram(runID, name, k.String(), db.SampleBackground, set.Background(k)); err != nil {
				return fmt.Errorf("bin %s: %w", name, err)
			}
		}
	}

	if a.truthPairs > 0 {
		if err := store.SaveHistogram(runID, ResolutionBinKey, hist.QInv.String(), db.SampleSignal, a.resolution); err != nil {
			return err
		}
	}

	s := a.Stats()
	return store.FinishRun(runID, db.RunSummary{
		EventsSeen:      s.EventsSeen,
		EventsAccepted:  s.EventsAccepted,
		SignalPairs:     s.SignalPairs,
		BackgroundPairs: s.BackgroundPairs,
		RejectedPairs:   s.RejectedPairs,
	})
}

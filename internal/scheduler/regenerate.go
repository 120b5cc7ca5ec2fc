package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/storage"
)

// RegenerateReport summarizes one regeneration pass.
type RegenerateReport struct {
	Medicines int // active medicines visited
	Created   int // reminders materialized
	Partial   int // medicines with at least one unparsable entry
	Failed    int // medicines whose replace transaction failed
}

// Regenerator materializes reminders for every active medicine. It runs at
// local midnight for the next day and once shortly after startup to cover a
// process that was down across the boundary; the materializer's
// discard-then-recreate step makes both safe to repeat.
type Regenerator struct {
	medicines storage.MedicineStore
	mat       *Materializer
	log       zerolog.Logger
}

func NewRegenerator(medicines storage.MedicineStore, mat *Materializer, log zerolog.Logger) *Regenerator {
	return &Regenerator{
		medicines: medicines,
		mat:       mat,
		log:       log.With().Str("component", "regenerator").Logger(),
	}
}

// Run visits all active medicines. A store failure while listing aborts the
// whole pass (it will be retried on the next scheduled invocation); a
// failure for one medicine is counted and does not stop the rest.
func (r *Regenerator) Run(ctx context.Context) (RegenerateReport, error) {
	medicines, err := r.medicines.FindActive(ctx)
	if err != nil {
		return RegenerateReport{}, err
	}

	report := RegenerateReport{Medicines: len(medicines)}
	for _, med := range medicines {
		result, err := r.mat.Materialize(ctx, med)
		if err != nil {
			report.Failed++
			r.log.Error().Err(err).Int64("medicine_id", med.MedicineID).Msg("failed to materialize reminders")
			continue
		}
		report.Created += result.Created
		if len(result.Failed) > 0 {
			report.Partial++
		}
	}

	r.log.Info().
		Int("medicines", report.Medicines).
		Int("created", report.Created).
		Int("partial", report.Partial).
		Int("failed", report.Failed).
		Msg("regeneration pass complete")

	return report, nil
}

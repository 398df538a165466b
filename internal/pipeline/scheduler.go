package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/foundersignal/pipeline/internal/logger"
)

// Scheduler drives the pipeline's stages on their cron cadences.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	logger   logger.Logger
}

// NewScheduler registers every entry of the stage → cron-spec map. Unknown
// stage names and invalid specs are hard errors so a typo in configuration
// cannot silently drop a stage.
func NewScheduler(p *Pipeline, schedules map[string]string, log logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		pipeline: p,
		logger:   log,
	}

	for stage, spec := range schedules {
		run, err := s.stageRunner(stage)
		if err != nil {
			return nil, err
		}
		_, err = s.cron.AddFunc(spec, func() {
			if err := run(context.Background()); err != nil {
				s.logger.Error("scheduled stage failed",
					logger.String("stage", stage), logger.Error(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s (%q): %w", stage, spec, err)
		}
		s.logger.Info("stage scheduled", logger.String("stage", stage), logger.String("spec", spec))
	}
	return s, nil
}

// stageRunner maps a stage name to its pipeline entry point. Collection
// stages use the "collect:<source>" form.
func (s *Scheduler) stageRunner(stage string) (func(context.Context) error, error) {
	if source, ok := strings.CutPrefix(stage, "collect:"); ok {
		if source == "funding" {
			return s.pipeline.CollectFunding, nil
		}
		if _, known := s.pipeline.collectors[source]; !known {
			return nil, fmt.Errorf("cannot schedule unknown source %q", source)
		}
		return func(ctx context.Context) error {
			return s.pipeline.Collect(ctx, source)
		}, nil
	}

	switch stage {
	case "scrape":
		return s.pipeline.Scrape, nil
	case "generate":
		return s.pipeline.Generate, nil
	case "funding_stories":
		return s.pipeline.GenerateFundingStories, nil
	case "valuations":
		return s.pipeline.UpdateValuations, nil
	case "revalidate":
		return s.pipeline.Revalidate, nil
	case "maintenance":
		return s.pipeline.Maintain, nil
	default:
		return nil, fmt.Errorf("cannot schedule unknown stage %q", stage)
	}
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", logger.Int("entries", len(s.cron.Entries())))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Entries returns the number of scheduled stages.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

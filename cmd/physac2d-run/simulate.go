package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/internal/config"
	"github.com/koteyur/physac2d/internal/cpbench"
)

type summary struct {
	Steps     int
	Elapsed   time.Duration
	TOIEvents int
	Broken    int
}

func (s summary) PerStep() time.Duration {
	if s.Steps == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Steps)
}

// simulate steps w for rc.Steps fixed steps or until ctx is done. mirror
// may be nil.
func simulate(ctx context.Context, w *dynamics.World, mirror *cpbench.Mirror, rc config.RunnerConfig, log *zap.Logger) summary {
	var sum summary
	for _, j := range w.Joints() {
		if !j.Enabled() {
			sum.Broken--
		}
	}

	dt := 1 / rc.Hz
	start := time.Now()
	for i := 0; i < rc.Steps; i++ {
		if ctx.Err() != nil {
			log.Warn("run interrupted", zap.Int("step", i))
			break
		}
		w.Step(dt)
		if mirror != nil {
			mirror.Step(dt)
		}
		sum.Steps++
		st := w.Stats()
		sum.TOIEvents += st.TOIEvents

		if rc.ReportEvery > 0 && sum.Steps%rc.ReportEvery == 0 {
			fields := []zap.Field{
				zap.Int("step", sum.Steps),
				zap.Int("bodies", st.Bodies),
				zap.Int("awake", st.AwakeBodies),
				zap.Int("contacts", st.Contacts),
				zap.Int("touching", st.Touching),
				zap.Int("islands", st.Islands),
				zap.Int("tree_height", st.TreeHeight),
			}
			if mirror != nil {
				fields = append(fields, zap.Stringer("drift", mirror.Compare()))
			}
			log.Info("progress", fields...)
		}
	}
	sum.Elapsed = time.Since(start)

	for _, j := range w.Joints() {
		if !j.Enabled() {
			sum.Broken++
		}
	}
	return sum
}

package batch

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Job reruns the batch each time it's scheduled. It satisfies cron.Job.
type Job struct {
	Runner *Runner
}

func (j Job) Run() {
	l := j.Runner.logger()
	l.WithFields(log.Fields{"files": len(j.Runner.Config.Files)}).Info("Starting scheduled run")

	// A bad file is logged rather than fatal so the files after it are still
	// processed, and the next run picks it up once it's fixed.
	r := *j.Runner
	r.Config.ContinueOnError = true
	if err := r.Run(context.Background()); err != nil {
		l.Errorf("Scheduled run failed: %v", err)
	}

	if j.Runner.Cache != nil {
		if n := j.Runner.Cache.Clean(); n > 0 {
			l.WithFields(log.Fields{"evicted": n}).Debug("Cleaned result cache")
		}
	}
}

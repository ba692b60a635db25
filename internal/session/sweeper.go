package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically force-closes sessions whose client never came
// back to trigger the close. Interval should be a fraction of the
// shortest exam duration.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	c        *cron.Cron
}

func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, interval: interval}
}

func (w *Sweeper) Start() error {
	w.c = cron.New()
	spec := fmt.Sprintf("@every %ds", int(w.interval.Seconds()))
	_, err := w.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.interval)
		defer cancel()
		n, err := w.svc.SweepExpired(ctx)
		if err != nil {
			log.Printf("sweep: %v", err)
			return
		}
		if n > 0 {
			log.Printf("sweep: auto-closed %d expired sessions", n)
		}
	})
	if err != nil {
		return err
	}
	w.c.Start()
	return nil
}

func (w *Sweeper) Stop() {
	if w.c != nil {
		w.c.Stop()
	}
}

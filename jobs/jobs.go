package jobs

import (
	"context"
	"time"

	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const jobTimeout = 30 * time.Second

// Runner owns the periodic maintenance work: sweeping expired sessions and
// rotating the daily topic at midnight.
type Runner struct {
	cron   *cron.Cron
	logger *logrus.Logger
	db     *gorm.DB
	auth   *auth.Service
}

func NewRunner(db *gorm.DB, svc *auth.Service, logger *logrus.Logger) *Runner {
	return &Runner{
		cron:   cron.New(),
		logger: logger,
		db:     db,
		auth:   svc,
	}
}

func (r *Runner) Start() {
	r.cron.AddFunc("@every 15m", r.sweepSessions)
	r.cron.AddFunc("@daily", r.rotateTopic)
	r.cron.Start()
	// a restart mid-day should not leave yesterday's topic active
	r.rotateTopic()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Runner) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := r.auth.DeleteExpiredSessions(ctx)
	if err != nil {
		r.logger.WithError(err).Error("jobs: session sweep")
		return
	}
	if n > 0 {
		r.logger.WithField("count", n).Info("jobs: swept expired sessions")
	}
}

// rotateTopic activates the topic dated today and deactivates every other
// one. Running it twice is harmless.
func (r *Runner) rotateTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	today := time.Now().Format("2006-01-02")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Topic{}).Where("active = ? AND date <> ?", true, today).Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.Topic{}).Where("date = ?", today).Update("active", true).Error
	})
	if err != nil {
		r.logger.WithError(err).Error("jobs: topic rotation")
	}
}

package job

import (
	"context"
	"log/slog"

	"github.com/v9cf/contentfactory/internal/service"
)

// SweepJob is the cron backstop for the queue: any scheduled post whose
// queue delivery was lost gets dispatched once its time passes, and
// accounts with lapsed token expiries are flipped to expired so they
// stop resolving for new publishes.
type SweepJob struct {
	publish  service.PublishService
	accounts service.AccountService
}

func NewSweepJob(publish service.PublishService, accounts service.AccountService) *SweepJob {
	return &SweepJob{
		publish:  publish,
		accounts: accounts,
	}
}

func (j *SweepJob) SweepDuePosts() {
	ctx := context.Background()

	if err := j.publish.DispatchDue(ctx); err != nil {
		slog.Info(err.Error())
	}
}

func (j *SweepJob) ExpireAccountTokens() {
	ctx := context.Background()

	expired, err := j.accounts.ExpireDueTokens(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if expired > 0 {
		slog.Info("expired connected account tokens", "count", expired)
	}
}

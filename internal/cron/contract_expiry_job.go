package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

const contractExpiryJobName = "contract-expiry"

type contractExpirer interface {
	ExpireEnded(ctx context.Context) (int, error)
}

// ContractExpiryJob closes active contracts whose end date has passed and frees their units.
type ContractExpiryJob struct {
	logg      *logger.Logger
	contracts contractExpirer
}

type ContractExpiryJobParams struct {
	Logger    *logger.Logger
	Contracts contractExpirer
}

func NewContractExpiryJob(params ContractExpiryJobParams) (*ContractExpiryJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Contracts == nil {
		return nil, fmt.Errorf("contracts service is required")
	}
	return &ContractExpiryJob{logg: params.Logger, contracts: params.Contracts}, nil
}

func (j *ContractExpiryJob) Name() string { return contractExpiryJobName }

func (j *ContractExpiryJob) Run(ctx context.Context) error {
	expired, err := j.contracts.ExpireEnded(ctx)
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "contracts expired")
	}
	if err != nil {
		return fmt.Errorf("expire contracts: %w", err)
	}
	return nil
}

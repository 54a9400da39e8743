package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

const paymentOverdueJobName = "payment-overdue"

type overdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// PaymentOverdueJob flips pending payments past their due date to overdue.
type PaymentOverdueJob struct {
	logg     *logger.Logger
	payments overdueMarker
}

type PaymentOverdueJobParams struct {
	Logger   *logger.Logger
	Payments overdueMarker
}

func NewPaymentOverdueJob(params PaymentOverdueJobParams) (*PaymentOverdueJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service is required")
	}
	return &PaymentOverdueJob{logg: params.Logger, payments: params.Payments}, nil
}

func (j *PaymentOverdueJob) Name() string { return paymentOverdueJobName }

func (j *PaymentOverdueJob) Run(ctx context.Context) error {
	marked, err := j.payments.MarkOverdue(ctx)
	if err != nil {
		return fmt.Errorf("mark overdue payments: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "marked", marked), "overdue payments marked")
	return nil
}

package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

var validate = validator.New()

// RecordInput describes how a payment was settled. PaidOn defaults to today.
type RecordInput struct {
	Method     string  `json:"metodo_pago" validate:"required,oneof=efectivo transferencia tarjeta cheque"`
	PaidOn     string  `json:"fecha_pago,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ReceiptURL *string `json:"comprobante_url,omitempty" validate:"omitempty,url"`
}

type paymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidOn time.Time, method string, receiptURL *string) (int64, error)
	MarkOverdue(ctx context.Context, day time.Time) (int64, error)
}

// ServiceParams bundles the dependencies of payment recording.
type ServiceParams struct {
	Repo   paymentRepository
	Logger *logger.Logger
	Now    func() time.Time
}

type Service struct {
	repo paymentRepository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, logg: params.Logger, now: now}, nil
}

// Record settles a pending or overdue payment. Paid payments are final.
func (s *Service) Record(ctx context.Context, id uuid.UUID, input RecordInput) (*models.Payment, error) {
	input.Method = strings.ToLower(strings.TrimSpace(input.Method))
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment")
	}
	paidOn := truncateDay(s.now())
	if input.PaidOn != "" {
		paidOn, _ = time.Parse("2006-01-02", input.PaidOn)
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Outstanding() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already recorded")
	}

	n, err := s.repo.MarkPaid(ctx, id, paidOn, input.Method, input.ReceiptURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment")
	}
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already recorded")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "payment_id", id.String()), "payment.recorded")
	}
	return s.find(ctx, id)
}

// MarkOverdue flips pending payments past their due date. Returns rows changed.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, truncateDay(s.now()))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark overdue payments")
	}
	return n, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payment")
	}
	return payment, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

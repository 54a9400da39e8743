package inquiries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/pagination"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

var validate = validator.New()

// SubmitInput is a visitor inquiry about one unit.
type SubmitInput struct {
	UnitID       uuid.UUID  `json:"local_id" validate:"required"`
	VisitorID    *uuid.UUID `json:"-"`
	ContactName  string     `json:"nombre_contacto" validate:"required,max=120"`
	ContactEmail string     `json:"email_contacto" validate:"required,email"`
	ContactPhone *string    `json:"telefono_contacto,omitempty" validate:"omitempty,max=30"`
	Message      string     `json:"mensaje" validate:"required,max=2000"`
}

// Item is an inquiry as listed to admins.
type Item struct {
	ID           uuid.UUID           `json:"id"`
	UnitID       uuid.UUID           `json:"local_id"`
	UnitCode     string              `json:"codigo_local,omitempty"`
	ContactName  string              `json:"nombre_contacto"`
	ContactEmail string              `json:"email_contacto"`
	ContactPhone *string             `json:"telefono_contacto,omitempty"`
	Message      string              `json:"mensaje"`
	Status       enums.InquiryStatus `json:"estado_solicitud"`
	ContactedAt  *time.Time          `json:"fecha_contacto,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Actions      Actions             `json:"acciones"`
}

type inquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.InquiryStatus, contactedAt *time.Time) (int64, error)
	List(ctx context.Context, status *enums.InquiryStatus, params pagination.Params) ([]models.Inquiry, error)
}

type unitLookup interface {
	FindUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error)
}

// ServiceParams bundles the dependencies of the inquiry workflow.
type ServiceParams struct {
	Repo   inquiryRepository
	Units  unitLookup
	Logger *logger.Logger
	Now    func() time.Time
}

type Service struct {
	repo  inquiryRepository
	units unitLookup
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inquiries repository is required")
	}
	if params.Units == nil {
		return nil, fmt.Errorf("unit lookup is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, units: params.Units, logg: params.Logger, now: now}, nil
}

// Submit records a new inquiry against an available unit.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Item, error) {
	input.ContactName = strings.TrimSpace(input.ContactName)
	input.ContactEmail = strings.TrimSpace(input.ContactEmail)
	input.Message = strings.TrimSpace(input.Message)
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inquiry")
	}

	unit, err := s.units.FindUnit(ctx, input.UnitID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup unit")
	}
	if unit.Status != enums.UnitStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "unit is not available")
	}

	inquiry := &models.Inquiry{
		ID:           uuid.New(),
		VisitorID:    input.VisitorID,
		UnitID:       unit.ID,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		Message:      input.Message,
		Status:       enums.InquiryStatusNew,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, inquiry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create inquiry")
	}
	inquiry.Unit = unit
	item := toItem(*inquiry)
	return &item, nil
}

func (s *Service) MarkContacted(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.apply(ctx, id, ActionMarkContacted)
}

func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.apply(ctx, id, ActionClose)
}

// List returns one page of inquiries, newest first.
func (s *Service) List(ctx context.Context, status *enums.InquiryStatus, params pagination.Params) (*types.Page[Item], error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid inquiry status")
	}
	rows, err := s.repo.List(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQuery, err, "list inquiries")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(m models.Inquiry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	return &types.Page[Item]{Items: items, NextCursor: next}, nil
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, action Action) (*Item, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	to, err := Transition(current.Status, action)
	if err != nil {
		return nil, err
	}

	var contactedAt *time.Time
	if to == enums.InquiryStatusContacted {
		now := s.now().UTC()
		contactedAt = &now
	}
	n, err := s.repo.UpdateStatus(ctx, id, current.Status, to, contactedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update inquiry")
	}
	if n == 0 {
		// someone else moved it first
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "inquiry was updated concurrently")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"inquiry_id": id.String(), "estado_solicitud": string(to)})
		s.logg.Info(logCtx, "inquiry.transitioned")
	}
	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toItem(*updated)
	return &item, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inquiry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup inquiry")
	}
	return inquiry, nil
}

func toItem(m models.Inquiry) Item {
	item := Item{
		ID:           m.ID,
		UnitID:       m.UnitID,
		ContactName:  m.ContactName,
		ContactEmail: m.ContactEmail,
		ContactPhone: m.ContactPhone,
		Message:      m.Message,
		Status:       m.Status,
		ContactedAt:  m.ContactedAt,
		CreatedAt:    m.CreatedAt,
		Actions:      ActionsFor(m.Status),
	}
	if m.Unit != nil {
		item.UnitCode = m.Unit.Code
	}
	return item
}

package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/units"
	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

const (
	dateLayout  = "2006-01-02"
	expiryBatch = 200
)

var validate = validator.New()

// CreateInput is an admin request to lease an available unit.
type CreateInput struct {
	UnitID       uuid.UUID        `json:"local_id" validate:"required"`
	OwnerID      uuid.UUID        `json:"local_owner_id" validate:"required"`
	StartDate    string           `json:"fecha_inicio" validate:"required,datetime=2006-01-02"`
	EndDate      string           `json:"fecha_fin" validate:"required,datetime=2006-01-02"`
	MonthlyRent  decimal.Decimal  `json:"renta_mensual"`
	Deposit      *decimal.Decimal `json:"deposito_garantia,omitempty"`
	SpecialTerms json.RawMessage  `json:"terminos_especiales,omitempty"`
	DocumentURL  *string          `json:"documento_contrato_url,omitempty" validate:"omitempty,url"`
}

type ownerLookup interface {
	FindWithRole(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ServiceParams bundles the dependencies of the lease operations.
type ServiceParams struct {
	DB     *db.Client
	Owners ownerLookup
	Logger *logger.Logger
	Now    func() time.Time
}

// Service keeps unit occupancy and active contracts in step: a unit is
// occupied exactly while one active contract references it.
type Service struct {
	db     *db.Client
	owners ownerLookup
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Owners == nil {
		return nil, fmt.Errorf("owner lookup is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{db: params.DB, owners: params.Owners, logg: params.Logger, now: now}, nil
}

// Create occupies the unit and inserts an active contract in one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Contract, error) {
	contract, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := units.NewRepository(tx).SetStatus(ctx, contract.UnitID, enums.UnitStatusAvailable, enums.UnitStatusOccupied)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "occupy unit")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "unit is not available")
		}
		if err := NewRepository(tx).Create(ctx, contract); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "unit already has an active contract")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contract")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, contract.ID, enums.ContractStatusActive)
	return contract, nil
}

// Terminate ends an active contract early and frees its unit.
func (s *Service) Terminate(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	if err := s.close(ctx, id, enums.ContractStatusTerminated); err != nil {
		return nil, err
	}
	s.logTransition(ctx, id, enums.ContractStatusTerminated)
	contract, err := NewRepository(s.db.DB()).FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload contract")
	}
	return contract, nil
}

// ExpireEnded marks active contracts whose end date is before today as
// vencido and frees their units. It returns how many contracts moved.
func (s *Service) ExpireEnded(ctx context.Context) (int, error) {
	today := truncateDay(s.now())
	rows, err := NewRepository(s.db.DB()).ListEndedBefore(ctx, today, expiryBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ended contracts")
	}

	var (
		moved int
		errs  error
	)
	for _, row := range rows {
		if err := s.close(ctx, row.ID, enums.ContractStatusExpired); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("contract %s: %w", row.ID, err))
			continue
		}
		moved++
		s.logTransition(ctx, row.ID, enums.ContractStatusExpired)
	}
	return moved, errs
}

func (s *Service) close(ctx context.Context, id uuid.UUID, to enums.ContractStatus) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "contract not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup contract")
		}
		if current.Status != enums.ContractStatusActive {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "contract is %s and can no longer change", current.Status)
		}
		n, err := repo.SetStatus(ctx, id, enums.ContractStatusActive, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update contract")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "contract was updated concurrently")
		}
		if _, err := units.NewRepository(tx).SetStatus(ctx, current.UnitID, enums.UnitStatusOccupied, enums.UnitStatusAvailable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "free unit")
		}
		return nil
	})
}

func (s *Service) build(ctx context.Context, input CreateInput) (*models.Contract, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contract")
	}
	start, _ := time.Parse(dateLayout, input.StartDate)
	end, _ := time.Parse(dateLayout, input.EndDate)
	if !end.After(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fecha_fin must be after fecha_inicio")
	}
	if !input.MonthlyRent.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "renta_mensual must be positive")
	}
	if input.Deposit != nil && input.Deposit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposito_garantia cannot be negative")
	}

	owner, err := s.owners.FindWithRole(ctx, input.OwnerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup owner")
	}
	if owner.Role == nil || owner.Role.Name != enums.RoleNameOwner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local_owner_id must reference a LocalOwner")
	}

	terms := datatypes.JSON(`{}`)
	if len(input.SpecialTerms) > 0 && strings.TrimSpace(string(input.SpecialTerms)) != "null" {
		if !json.Valid(input.SpecialTerms) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminos_especiales must be valid JSON")
		}
		terms = datatypes.JSON(input.SpecialTerms)
	}
	contract := &models.Contract{
		ID:           uuid.New(),
		UnitID:       input.UnitID,
		OwnerID:      input.OwnerID,
		StartDate:    datatypes.Date(start),
		EndDate:      datatypes.Date(end),
		MonthlyRent:  input.MonthlyRent,
		Status:       enums.ContractStatusActive,
		SpecialTerms: terms,
		DocumentURL:  input.DocumentURL,
	}
	if input.Deposit != nil {
		contract.Deposit = decimal.NewNullDecimal(*input.Deposit)
	}
	return contract, nil
}

func (s *Service) logTransition(ctx context.Context, id uuid.UUID, to enums.ContractStatus) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"contract_id": id.String(), "estado_contrato": string(to)})
	s.logg.Info(logCtx, "contract.transitioned")
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

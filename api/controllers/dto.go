package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

type contractResponse struct {
	ID           uuid.UUID            `json:"id"`
	UnitID       uuid.UUID            `json:"local_id"`
	OwnerID      uuid.UUID            `json:"local_owner_id"`
	StartDate    string               `json:"fecha_inicio"`
	EndDate      string               `json:"fecha_fin"`
	MonthlyRent  decimal.Decimal      `json:"renta_mensual"`
	Deposit      *decimal.Decimal     `json:"deposito_garantia,omitempty"`
	Status       enums.ContractStatus `json:"estado_contrato"`
	SpecialTerms json.RawMessage      `json:"terminos_especiales,omitempty"`
	DocumentURL  *string              `json:"documento_contrato_url,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func newContractResponse(c *models.Contract) contractResponse {
	out := contractResponse{
		ID:          c.ID,
		UnitID:      c.UnitID,
		OwnerID:     c.OwnerID,
		StartDate:   time.Time(c.StartDate).Format(dateLayout),
		EndDate:     time.Time(c.EndDate).Format(dateLayout),
		MonthlyRent: c.MonthlyRent,
		Status:      c.Status,
		DocumentURL: c.DocumentURL,
		CreatedAt:   c.CreatedAt,
	}
	if c.Deposit.Valid {
		d := c.Deposit.Decimal
		out.Deposit = &d
	}
	if len(c.SpecialTerms) > 0 {
		out.SpecialTerms = json.RawMessage(c.SpecialTerms)
	}
	return out
}

type paymentResponse struct {
	ID         uuid.UUID           `json:"id"`
	ContractID uuid.UUID           `json:"contrato_id"`
	Period     string              `json:"mes_anio"`
	Amount     decimal.Decimal     `json:"monto"`
	DueDate    string              `json:"fecha_vencimiento"`
	PaidDate   *string             `json:"fecha_pago,omitempty"`
	Status     enums.PaymentStatus `json:"estado_pago"`
	Method     *string             `json:"metodo_pago,omitempty"`
	ReceiptURL *string             `json:"comprobante_url,omitempty"`
}

func newPaymentResponse(p *models.Payment) paymentResponse {
	out := paymentResponse{
		ID:         p.ID,
		ContractID: p.ContractID,
		Period:     p.Period,
		Amount:     p.Amount,
		DueDate:    time.Time(p.DueDate).Format(dateLayout),
		Status:     p.Status,
		Method:     p.Method,
		ReceiptURL: p.ReceiptURL,
	}
	if p.PaidDate != nil {
		paid := time.Time(*p.PaidDate).Format(dateLayout)
		out.PaidDate = &paid
	}
	return out
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentTypeExpense PaymentType = "expense"
	PaymentTypeIncome  PaymentType = "income"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const PaymentCategoryMedicine = "medicine"

// Payment is a ledger entry. Deletion is a tombstone: deleted rows
// keep their data but are excluded from every query.
type Payment struct {
	Base
	PatientID       *uuid.UUID    `db:"patient_id" json:"patient_id,omitempty"`
	Amount          float64       `db:"amount" json:"amount"`
	Description     string        `db:"description" json:"description"`
	Category        string        `db:"category" json:"category"`
	Date            string        `db:"date" json:"date"`
	PaymentMethod   string        `db:"payment_method" json:"payment_method"`
	ReferenceNumber *string       `db:"reference_number" json:"reference_number,omitempty"`
	Status          PaymentStatus `db:"status" json:"status"`
	Type            PaymentType   `db:"type" json:"type"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	DeletedAt       *time.Time    `db:"deleted_at" json:"-"`
}

type CreatePaymentRequest struct {
	Amount          float64    `json:"amount" binding:"required,gt=0"`
	Description     string     `json:"description" binding:"required,max=255"`
	Category        string     `json:"category" binding:"required,max=100"`
	Date            string     `json:"date" binding:"required,datetime=2006-01-02"`
	Type            string     `json:"type" binding:"required,oneof=expense income"`
	PaymentMethod   string     `json:"payment_method" binding:"omitempty,oneof=cash card bank_transfer upi other"`
	ReferenceNumber *string    `json:"reference_number" binding:"omitempty,max=100"`
	Status          string     `json:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	PatientID       *uuid.UUID `json:"patient_id"`
	Notes           *string    `json:"notes"`
}

type UpdatePaymentRequest struct {
	Amount          *float64   `json:"amount" binding:"omitempty,gt=0"`
	Description     *string    `json:"description" binding:"omitempty,max=255"`
	Category        *string    `json:"category" binding:"omitempty,max=100"`
	Date            *string    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	PaymentMethod   *string    `json:"payment_method" binding:"omitempty,oneof=cash card bank_transfer upi other"`
	ReferenceNumber *string    `json:"reference_number" binding:"omitempty,max=100"`
	Status          *string    `json:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	PatientID       *uuid.UUID `json:"patient_id"`
	Notes           *string    `json:"notes"`
}

type PaymentFilters struct {
	Pagination
	Type      string
	Status    string
	Category  string
	Search    string
	StartDate string
	EndDate   string
}

// CategoryTotal is one row of a by-category aggregate.
type CategoryTotal struct {
	Category string  `db:"category" json:"category"`
	Total    float64 `db:"total" json:"total"`
}

// PaymentSummary is the ledger aggregate over a date range.
type PaymentSummary struct {
	TotalIncome        float64          `json:"total_income"`
	TotalExpenses      float64          `json:"total_expenses"`
	NetIncome          float64          `json:"net_income"`
	IncomeByCategory   []*CategoryTotal `json:"income_by_category"`
	ExpensesByCategory []*CategoryTotal `json:"expenses_by_category"`
	StartDate          string           `json:"start_date,omitempty"`
	EndDate            string           `json:"end_date,omitempty"`
}

// PaymentReport pairs filtered ledger rows with their aggregate.
type PaymentReport struct {
	Payments []*Payment      `json:"payments"`
	Summary  *PaymentSummary `json:"summary"`
}

// PaymentCategories lists the distinct categories per ledger side.
type PaymentCategories struct {
	ExpenseCategories []string `json:"expense_categories"`
	IncomeCategories  []string `json:"income_categories"`
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/pkg/errors"
)

const paymentColumns = `
	id, patient_id, amount, description, category,
	to_char(date, 'YYYY-MM-DD') AS date, payment_method, reference_number,
	status, type, notes, deleted_at, created_at, updated_at
`

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	query := `
		INSERT INTO payments (
			id, patient_id, amount, description, category, date,
			payment_method, reference_number, status, type, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.PatientID,
		payment.Amount,
		payment.Description,
		payment.Category,
		payment.Date,
		payment.PaymentMethod,
		payment.ReferenceNumber,
		payment.Status,
		payment.Type,
		payment.Notes,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND deleted_at IS NULL`
	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFound("payment", err)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	payment.UpdatedAt = time.Now()

	query := `
		UPDATE payments
		SET patient_id = $1, amount = $2, description = $3, category = $4,
			date = $5::date, payment_method = $6, reference_number = $7,
			status = $8, type = $9, notes = $10, updated_at = $11
		WHERE id = $12 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		payment.PatientID,
		payment.Amount,
		payment.Description,
		payment.Category,
		payment.Date,
		payment.PaymentMethod,
		payment.ReferenceNumber,
		payment.Status,
		payment.Type,
		payment.Notes,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("payment", nil)
	}
	return nil
}

func (r *paymentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE payments SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("payment", nil)
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filters *model.PaymentFilters) ([]*model.Payment, error) {
	where := " WHERE deleted_at IS NULL"
	args := []interface{}{}
	argCount := 1

	if filters.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argCount)
		args = append(args, filters.Type)
		argCount++
	}
	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argCount)
		args = append(args, filters.Category)
		argCount++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(" AND (description ILIKE $%d OR reference_number ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}
	if filters.StartDate != "" {
		where += fmt.Sprintf(" AND date >= $%d::date", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}
	if filters.EndDate != "" {
		where += fmt.Sprintf(" AND date <= $%d::date", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + where +
		" ORDER BY date DESC, created_at DESC"

	payments := []*model.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) Summary(ctx context.Context, startDate, endDate string) (*model.PaymentSummary, error) {
	where := " WHERE deleted_at IS NULL"
	args := []interface{}{}
	argCount := 1

	if startDate != "" {
		where += fmt.Sprintf(" AND date >= $%d::date", argCount)
		args = append(args, startDate)
		argCount++
	}
	if endDate != "" {
		where += fmt.Sprintf(" AND date <= $%d::date", argCount)
		args = append(args, endDate)
		argCount++
	}

	summary := &model.PaymentSummary{
		StartDate:          startDate,
		EndDate:            endDate,
		IncomeByCategory:   []*model.CategoryTotal{},
		ExpensesByCategory: []*model.CategoryTotal{},
	}

	var totals struct {
		Income   float64 `db:"income"`
		Expenses float64 `db:"expenses"`
	}
	totalsQuery := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0) AS income,
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0) AS expenses
		FROM payments` + where
	if err := r.db.GetContext(ctx, &totals, totalsQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to get payment totals: %w", err)
	}
	summary.TotalIncome = totals.Income
	summary.TotalExpenses = totals.Expenses
	summary.NetIncome = totals.Income - totals.Expenses

	byCategory := func(paymentType string) ([]*model.CategoryTotal, error) {
		query := `
			SELECT category, COALESCE(SUM(amount), 0) AS total
			FROM payments` + where + fmt.Sprintf(" AND type = $%d", argCount) + `
			GROUP BY category
			ORDER BY total DESC
		`
		rows := []*model.CategoryTotal{}
		if err := r.db.SelectContext(ctx, &rows, query, append(append([]interface{}{}, args...), paymentType)...); err != nil {
			return nil, fmt.Errorf("failed to aggregate %s by category: %w", paymentType, err)
		}
		return rows, nil
	}

	income, err := byCategory("income")
	if err != nil {
		return nil, err
	}
	summary.IncomeByCategory = income

	expenses, err := byCategory("expense")
	if err != nil {
		return nil, err
	}
	summary.ExpensesByCategory = expenses

	return summary, nil
}

func (r *paymentRepository) Categories(ctx context.Context) (*model.PaymentCategories, error) {
	distinct := func(paymentType string) ([]string, error) {
		query := `
			SELECT DISTINCT category FROM payments
			WHERE deleted_at IS NULL AND type = $1
			ORDER BY category ASC
		`
		categories := []string{}
		if err := r.db.SelectContext(ctx, &categories, query, paymentType); err != nil {
			return nil, fmt.Errorf("failed to list %s categories: %w", paymentType, err)
		}
		return categories, nil
	}

	expense, err := distinct("expense")
	if err != nil {
		return nil, err
	}
	income, err := distinct("income")
	if err != nil {
		return nil, err
	}

	return &model.PaymentCategories{
		ExpenseCategories: expense,
		IncomeCategories:  income,
	}, nil
}

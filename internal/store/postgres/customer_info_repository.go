package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// ErrCustomerInfoNotFound is returned by Get when no KYC row exists yet.
var ErrCustomerInfoNotFound = errors.New("postgres: customer info not found")

// CustomerInfoRepository persists the optional KYC context (source-of-funds
// cap, declared monthly income) the weight detector uses for economic
// plausibility checks.
type CustomerInfoRepository struct {
	db *Database
}

// NewCustomerInfoRepository builds a CustomerInfoRepository over db.
func NewCustomerInfoRepository(db *Database) *CustomerInfoRepository {
	return &CustomerInfoRepository{db: db}
}

// Upsert creates or updates a customer's KYC context.
func (r *CustomerInfoRepository) Upsert(ctx context.Context, info models.CustomerInfo) error {
	query := `
		INSERT INTO customer_info (customer_id, source_of_funds_cap, monthly_income)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id) DO UPDATE
		SET source_of_funds_cap = EXCLUDED.source_of_funds_cap,
		    monthly_income = EXCLUDED.monthly_income`

	_, err := r.db.Pool.Exec(ctx, query, info.CustomerID, info.SourceOfFundsCap, info.MonthlyIncome)
	if err != nil {
		return fmt.Errorf("upsert customer info for %s: %w", info.CustomerID, err)
	}
	return nil
}

// Get fetches a customer's KYC context.
func (r *CustomerInfoRepository) Get(ctx context.Context, customerID string) (models.CustomerInfo, error) {
	query := `
		SELECT customer_id, source_of_funds_cap, monthly_income
		FROM customer_info
		WHERE customer_id = $1`

	var info models.CustomerInfo
	var sourceCap, monthlyIncome *decimal.Decimal

	err := r.db.Pool.QueryRow(ctx, query, customerID).Scan(&info.CustomerID, &sourceCap, &monthlyIncome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CustomerInfo{}, ErrCustomerInfoNotFound
		}
		return models.CustomerInfo{}, fmt.Errorf("query customer info for %s: %w", customerID, err)
	}

	info.SourceOfFundsCap = sourceCap
	info.MonthlyIncome = monthlyIncome
	return info, nil
}

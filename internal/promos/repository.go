package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/ridemeter/pkg/common"
)

// Repository reads wallets and promo codes from PostgreSQL
type Repository struct {
	db  Database
	now func() time.Time
}

// NewRepository creates a repository over db (usually a *pgxpool.Pool)
func NewRepository(db Database) *Repository {
	return &Repository{db: db, now: time.Now}
}

// GetWalletBalance implements WalletLookup
func (r *Repository) GetWalletBalance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	var b Balance
	err := r.db.QueryRow(ctx,
		`SELECT balance, currency FROM wallets WHERE user_id = $1`,
		userID,
	).Scan(&b.Amount, &b.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("wallet not found", err)
		}
		return nil, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	b.Currency = strings.TrimSpace(b.Currency)
	return &b, nil
}

// ValidatePromoCode implements PromoValidator. Inactive, expired, exhausted
// or below-minimum codes yield (nil, nil).
func (r *Repository) ValidatePromoCode(ctx context.Context, code string, baseAmount float64) (*Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	var (
		d          Discount
		minAmount  float64
		maxUses    *int
		uses       int
		validFrom  time.Time
		validUntil *time.Time
		isActive   bool
	)
	err := r.db.QueryRow(ctx, `
		SELECT discount_type, discount_value, min_ride_amount, max_uses, uses,
		       valid_from, valid_until, is_active
		FROM promo_codes
		WHERE code = $1`,
		code,
	).Scan(&d.Type, &d.Value, &minAmount, &maxUses, &uses, &validFrom, &validUntil, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	now := r.now()
	switch {
	case !isActive:
		return nil, nil
	case now.Before(validFrom):
		return nil, nil
	case validUntil != nil && now.After(*validUntil):
		return nil, nil
	case maxUses != nil && uses >= *maxUses:
		return nil, nil
	case baseAmount < minAmount:
		return nil, nil
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("promo code %s is misconfigured: %w", code, err)
	}
	return &d, nil
}

package promos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Balance is a wallet amount in its own currency
type Balance struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// WalletLookup reads a rider's stored balance
type WalletLookup interface {
	GetWalletBalance(ctx context.Context, userID uuid.UUID) (*Balance, error)
}

// PromoValidator checks a promo code against the amount it would discount.
// A nil Discount with a nil error means the code does not apply.
type PromoValidator interface {
	ValidatePromoCode(ctx context.Context, code string, baseAmount float64) (*Discount, error)
}

// Database is the slice of pgxpool.Pool the repository uses
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

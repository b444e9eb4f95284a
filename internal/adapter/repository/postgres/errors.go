package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gobank/internal/domain"
)

// PostgreSQL error codes the ledger reacts to.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
)

// Constraint names from the schema migrations.
const (
	constraintAccountNumber   = "accounts_account_number_key"
	constraintAccountUserType = "accounts_user_type_key"
	constraintBalanceNonNeg   = "accounts_balance_non_negative"
	constraintCategoryName    = "categories_name_key"
)

// translateError maps driver failures onto domain errors, leaving others wrapped as-is.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrentUpdate, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, pgErr.Message)
	case pgErrUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintAccountNumber:
			return domain.ErrAccountNumberTaken
		case constraintAccountUserType:
			return domain.ErrDuplicateAccountType
		case constraintCategoryName:
			return domain.ErrDuplicateCategory
		}
	case pgErrCheckViolation:
		if pgErr.ConstraintName == constraintBalanceNonNeg {
			return domain.ErrInsufficientFunds
		}
	}

	return err
}

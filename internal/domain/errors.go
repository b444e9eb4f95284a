package domain

import "errors"

// Kind classifies a domain error so callers can map it without knowing every sentinel.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindConflict
	KindPolicyViolation
	KindInsufficientFunds
	KindIllegalState
	KindRetryable
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindNotFound:          "not_found",
	KindInvalidInput:      "invalid_input",
	KindConflict:          "conflict",
	KindPolicyViolation:   "policy_violation",
	KindInsufficientFunds: "insufficient_funds",
	KindIllegalState:      "illegal_state",
	KindRetryable:         "retryable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a typed domain failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	// NotFound
	ErrAccountNotFound  = newError(KindNotFound, "account not found")
	ErrUserNotFound     = newError(KindNotFound, "user not found")
	ErrCategoryNotFound = newError(KindNotFound, "category not found")
	ErrTransferNotFound = newError(KindNotFound, "transfer not found")

	// InvalidInput
	ErrInvalidAmount             = newError(KindInvalidInput, "amount must be positive")
	ErrInvalidAccountType        = newError(KindInvalidInput, "invalid account type")
	ErrInvalidAccountStatus      = newError(KindInvalidInput, "invalid account status")
	ErrInvalidCategoryType       = newError(KindInvalidInput, "invalid category type")
	ErrInvalidCategoryName       = newError(KindInvalidInput, "invalid category name")
	ErrInvalidAccountNumber      = newError(KindInvalidInput, "account number must be 8 digits")
	ErrReasonRequired            = newError(KindInvalidInput, "closure reason is required")
	ErrMismatchedAccountDetails  = newError(KindInvalidInput, "account number or type does not match")
	ErrDescriptionTooLong        = newError(KindInvalidInput, "description too long")
	ErrAmountTooLarge            = newError(KindInvalidInput, "amount exceeds maximum allowed")
	ErrAmountPrecision           = newError(KindInvalidInput, "amount has too many decimal places")
	ErrInvalidStatusTransition   = newError(KindInvalidInput, "status transition not allowed")
	ErrMissingRequiredIdentifier = newError(KindInvalidInput, "missing required identifier")

	// Conflict
	ErrSameAccount          = newError(KindConflict, "cannot transfer to same account")
	ErrDuplicateAccountType = newError(KindConflict, "user already holds an account of this type")
	ErrDuplicateCategory    = newError(KindConflict, "category already exists")
	ErrAccountAlreadyClosed = newError(KindConflict, "account already closed")

	// PolicyViolation
	ErrAccountLimitReached = newError(KindPolicyViolation, "account limit reached")
	ErrNonZeroBalance      = newError(KindPolicyViolation, "account balance must be zero to close")
	ErrSystemCategory      = newError(KindPolicyViolation, "system category can only be deleted by an administrator")

	// InsufficientFunds
	ErrInsufficientFunds = newError(KindInsufficientFunds, "insufficient funds")

	// IllegalState
	ErrAccountClosed = newError(KindIllegalState, "account is closed")
	ErrAccountFrozen = newError(KindIllegalState, "account is frozen")

	// Retryable
	ErrConcurrentUpdate   = newError(KindRetryable, "concurrent update, retry the operation")
	ErrAccountNumberTaken = newError(KindRetryable, "account number already taken")
)

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the operation may succeed if repeated unchanged.
func IsRetryable(err error) bool {
	return KindOf(err) == KindRetryable
}

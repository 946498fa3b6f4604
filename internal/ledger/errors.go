package ledger

import "errors"

var (
	// ErrInvalidArgument reports a malformed name, description, amount or date.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateKey reports an id that is already in use.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDuplicateName reports an entity name that collides, ignoring case,
	// with an existing entity.
	ErrDuplicateName = errors.New("duplicate entity name")

	// ErrReferentialIntegrity reports a dangling debtor, creditor, payer,
	// receipt or transaction reference.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// ErrTypeMismatch reports an account type change on update, or an entity
	// that is not a resident where one is required.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrConflict reports a receipt and a transaction that disagree about
	// their association.
	ErrConflict = errors.New("conflicting receipt reference")

	// ErrArithmeticOverflow reports a balance that would become non-finite.
	ErrArithmeticOverflow = errors.New("balance overflow")

	// ErrNotFound reports a lookup miss on an operation that requires presence.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported reports an operation this ledger deliberately does not
	// implement.
	ErrUnsupported = errors.New("unsupported operation")
)

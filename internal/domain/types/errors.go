package types

import "errors"

var (
	ErrNotFound         = errors.New("requested item not found")
	ErrNodeNotFound     = errors.New("node not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDriverNotFound   = errors.New("driver not found")
	ErrMissionNotFound  = errors.New("mission not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrSettingsNotFound = errors.New("settings record missing")

	ErrInvalidState           = errors.New("operation not legal for current status")
	ErrCapacityExceeded       = errors.New("node is at full capacity")
	ErrAlreadyBound           = errors.New("already bound to an active trip")
	ErrAlreadyJoined          = errors.New("already joined")
	ErrAlreadyCompleted       = errors.New("node already completed")
	ErrInsufficientBalance    = errors.New("insufficient wallet balance")
	ErrInvalidCode            = errors.New("verification code does not match")
	ErrContention             = errors.New("concurrent update conflict, retry")
	ErrWrongState             = errors.New("node is not qualified for dispatch")
	ErrEmptyNode              = errors.New("node has no passengers")
	ErrNotLeader              = errors.New("only the node leader may do this")
	ErrNotMember              = errors.New("passenger is not a member of this node")
	ErrNotAssignedDriver      = errors.New("only the assigned driver may verify this trip")
	ErrDriverHasActiveNode    = errors.New("driver has a qualified or dispatched node assigned")
	ErrForceQualifyLoneRider  = errors.New("cannot force-qualify a single-passenger node")
	ErrDuplicateClaim         = errors.New("an open claim already exists for this seat")
	ErrOfferBelowExpectedFare = errors.New("offer is below the expected fare")

	ErrInvalidVehicleClass    = errors.New("unknown vehicle class")
	ErrInvalidTransactionType = errors.New("unknown transaction type")

	ErrDatabaseFailed = errors.New("database operation failed")
)

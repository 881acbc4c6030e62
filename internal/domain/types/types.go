package types

// Enum for node lifecycle status
type NodeStatus string

const (
	NodeForming    NodeStatus = "FORMING"
	NodeQualified  NodeStatus = "QUALIFIED"
	NodeDispatched NodeStatus = "DISPATCHED"
	NodeCompleted  NodeStatus = "COMPLETED"
)

// nodeTransitions represents the node state flow as code.
// DISPATCHED -> QUALIFIED is the explicit driver-unassign rollback,
// QUALIFIED -> FORMING happens when membership drops below capacity
// while no driver is bound. COMPLETED is terminal.
var nodeTransitions = map[NodeStatus][]NodeStatus{
	NodeForming:    {NodeQualified},
	NodeQualified:  {NodeForming, NodeDispatched},
	NodeDispatched: {NodeQualified, NodeCompleted},
}

// CanTransition reports whether a node may move from one status to another.
func CanTransition(from, to NodeStatus) bool {
	for _, s := range nodeTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseNodeStatus rejects any value outside the closed set at the boundary.
func ParseNodeStatus(s string) (NodeStatus, error) {
	switch NodeStatus(s) {
	case NodeForming, NodeQualified, NodeDispatched, NodeCompleted:
		return NodeStatus(s), nil
	default:
		return "", ErrInvalidState
	}
}

// Enum for vehicle classes
type VehicleClass string

const (
	PragiaClass  VehicleClass = "PRAGIA"
	TaxiClass    VehicleClass = "TAXI"
	ShuttleClass VehicleClass = "SHUTTLE"
)

func ParseVehicleClass(s string) (VehicleClass, error) {
	switch VehicleClass(s) {
	case PragiaClass, TaxiClass, ShuttleClass:
		return VehicleClass(s), nil
	default:
		return "", ErrInvalidVehicleClass
	}
}

// DefaultCapacity returns the pool capacity a node of this class forms
// with unless the creator sets one explicitly (shuttle/broadcast routes).
func (c VehicleClass) DefaultCapacity() int {
	switch c {
	case PragiaClass:
		return 3
	case TaxiClass:
		return 4
	case ShuttleClass:
		return 10
	default:
		return 1
	}
}

// Enum for driver status
type DriverStatus string

const (
	DriverOnline  DriverStatus = "ONLINE"
	DriverBusy    DriverStatus = "BUSY"
	DriverOffline DriverStatus = "OFFLINE"
)

// Enum for user roles
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RolePassenger UserRole = "PASSENGER"
	RoleDriver    UserRole = "DRIVER"
	RoleAdmin     UserRole = "ADMIN"
)

// Enum for ledger transaction types
type TransactionType string

const (
	TxCommission   TransactionType = "commission"
	TxTopup        TransactionType = "topup"
	TxRegistration TransactionType = "registration"
	TxRefund       TransactionType = "refund"
	TxFarePayment  TransactionType = "fare_payment"
	TxWithdrawal   TransactionType = "withdrawal"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TxCommission, TxTopup, TxRegistration, TxRefund, TxFarePayment, TxWithdrawal:
		return TransactionType(s), nil
	default:
		return "", ErrInvalidTransactionType
	}
}

// Enum for operator-reviewed claim status
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestPending, RequestApproved, RequestRejected:
		return RequestStatus(s), nil
	default:
		return "", ErrInvalidState
	}
}

// Enum for ledger account kinds
type AccountType string

const (
	DriverAccount    AccountType = "driver"
	PassengerAccount AccountType = "passenger"
)

package subscriptions

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type transition struct {
	From Status
	To   Status
}

// There is no Active -> Pending: failed renewals are counted on the
// subscription instead.
var validTransitions = map[transition]bool{
	{StatusPending, StatusActive}:   true,
	{StatusActive, StatusCancelled}: true,
	{StatusActive, StatusExpired}:   true,
}

func CanTransition(from, to Status) bool {
	return validTransitions[transition{from, to}]
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

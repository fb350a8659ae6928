package shop

// Status values are the backend's wire values.
type Status string

const (
	StatusCreated   Status = "CREE"
	StatusValidated Status = "VALIDEE"
	StatusPaid      Status = "PAYEE"
	StatusShipped   Status = "EXPEDIEE"
	StatusDelivered Status = "LIVREE"
	StatusCanceled  Status = "ANNULEE"
	StatusRefunded  Status = "REMBOURSEE"
)

// validNext lists the transitions the backend confirms. The client never applies them itself.
var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusValidated: true, StatusPaid: true, StatusCanceled: true},
	StatusValidated: {StatusPaid: true, StatusShipped: true, StatusCanceled: true},
	StatusPaid:      {StatusValidated: true, StatusShipped: true, StatusCanceled: true, StatusRefunded: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {StatusRefunded: true},
	StatusCanceled:  {},
	StatusRefunded:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

func (s Status) Label() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusValidated:
		return "validated"
	case StatusPaid:
		return "paid"
	case StatusShipped:
		return "shipped"
	case StatusDelivered:
		return "delivered"
	case StatusCanceled:
		return "canceled"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// CancelHint decides whether a cancel control is offered. It is a display hint only;
// the backend enforces eligibility and may still refuse.
func CancelHint(o Order) bool {
	return o.Status == StatusCreated && o.PaidAt == nil
}

package constants

const (
	CentsPerUnit = 100

	MaxDocumentLen = 30

	// Transaction journal statuses
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusReversed  = "REVERSED"
	StatusCancelled = "CANCELLED"
	StatusDenied    = "DENIED"
	StatusErrored   = "ERRORED"

	// Sale statuses
	SaleOpen      = "OPEN"
	SaleSettled   = "SETTLED"
	SaleAbandoned = "ABANDONED"

	// Date Layout for display
	DateFormat = "2006-01-02 15:04:05"
)

package store

// Sale groups the TEF transactions paying for one fiscal document. A sale
// stays OPEN while it has unresolved transactions.
type Sale struct {
	ID         string
	Document   string
	TotalCents int64
	MultiTx    bool
	Status     string
	CreatedAt  int64
}

// TEFTransaction is the journal record of one request sent to the engine.
type TEFTransaction struct {
	ID          int64
	RequestID   string
	SaleID      string
	Kind        string
	AmountCents int64
	Network     string
	NSU         string
	Token       string
	Status      string
	Message     string
	CreatedAt   int64
	UpdatedAt   int64
}

package store

type Repository interface {
	// Sale Operations
	CreateSale(sale Sale) error
	GetSaleByID(id string) (*Sale, error)
	GetOpenSale() (*Sale, error)
	MarkSaleMultiTx(id string) error
	CloseSale(id string, status string) error

	// Transaction Operations
	RecordTransaction(tx TEFTransaction) (int64, error)
	UpdateTransactionStatus(requestID, status, message string) error
	GetTransactionByNSU(nsu string) (*TEFTransaction, error)
	ListTransactions(limit int) ([]*TEFTransaction, error)
	ListPending() ([]*TEFTransaction, error)

	ExecTx(fn func(Repository) error) error
	Close() error
}

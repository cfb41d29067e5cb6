package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hance08/tefpos/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the embedded migrations live at the repository root
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "tefpos.db"), os.DirFS("../.."))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func newSale(doc string, total int64) Sale {
	return Sale{
		ID:         uuid.NewString(),
		Document:   doc,
		TotalCents: total,
		Status:     constants.SaleOpen,
		CreatedAt:  time.Now().Unix(),
	}
}

func newTx(requestID, saleID, nsu, status string) TEFTransaction {
	now := time.Now().Unix()
	return TEFTransaction{
		RequestID:   requestID,
		SaleID:      saleID,
		Kind:        "CREDIT",
		AmountCents: 10000,
		Network:     "VISA",
		NSU:         nsu,
		Token:       "ABC123",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSaleLifecycle(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOpenSale()
	assert.ErrorIs(t, err, ErrNoOpenSale)

	sale := newSale("NF1234", 10000)
	require.NoError(t, s.CreateSale(sale))

	open, err := s.GetOpenSale()
	require.NoError(t, err)
	assert.Equal(t, sale.ID, open.ID)
	assert.Equal(t, "NF1234", open.Document)
	assert.False(t, open.MultiTx)

	require.NoError(t, s.MarkSaleMultiTx(sale.ID))
	got, err := s.GetSaleByID(sale.ID)
	require.NoError(t, err)
	assert.True(t, got.MultiTx)

	require.NoError(t, s.CloseSale(sale.ID, constants.SaleSettled))
	_, err = s.GetOpenSale()
	assert.ErrorIs(t, err, ErrNoOpenSale)

	got, err = s.GetSaleByID(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SaleSettled, got.Status)
}

func TestCreateSaleDuplicateID(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 100)
	require.NoError(t, s.CreateSale(sale))

	err := s.CreateSale(sale)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSaleMutationsOnMissingID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSaleByID("missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, s.MarkSaleMultiTx("missing"), ErrRecordNotFound)
	assert.ErrorIs(t, s.CloseSale("missing", constants.SaleSettled), ErrRecordNotFound)
}

func TestTransactionJournal(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 10000)
	require.NoError(t, s.CreateSale(sale))

	id, err := s.RecordTransaction(newTx("0000000001", sale.ID, "0000000042", constants.StatusPending))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetTransactionByNSU("0000000042")
	require.NoError(t, err)
	assert.Equal(t, "0000000001", got.RequestID)
	assert.Equal(t, constants.StatusPending, got.Status)

	require.NoError(t, s.UpdateTransactionStatus("0000000001", constants.StatusConfirmed, "CONFIRMADA"))
	got, err = s.GetTransactionByNSU("0000000042")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusConfirmed, got.Status)
	assert.Equal(t, "CONFIRMADA", got.Message)
}

func TestRecordTransactionWithoutSale(t *testing.T) {
	s := newTestStore(t)

	// Standalone cancels and admin operations carry no parent sale.
	tx := newTx("0000000001", "", "0000000042", constants.StatusCancelled)
	tx.Kind = "CANCEL"

	id, err := s.RecordTransaction(tx)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetTransactionByNSU("0000000042")
	require.NoError(t, err)
	assert.Empty(t, got.SaleID)
	assert.Equal(t, "CANCEL", got.Kind)

	txs, err := s.ListTransactions(10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestRecordTransactionUnknownSale(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RecordTransaction(newTx("0000000001", "no-such-sale", "1", constants.StatusPending))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Contains(t, err.Error(), "sale")
	assert.NotContains(t, err.Error(), "duplicate")
}

func TestRecordTransactionDuplicateRequestID(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 100)
	require.NoError(t, s.CreateSale(sale))

	_, err := s.RecordTransaction(newTx("0000000001", sale.ID, "1", constants.StatusPending))
	require.NoError(t, err)

	_, err = s.RecordTransaction(newTx("0000000001", sale.ID, "2", constants.StatusPending))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestListPendingOldestFirst(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 10000)
	require.NoError(t, s.CreateSale(sale))

	first := newTx("0000000001", sale.ID, "1", constants.StatusPending)
	first.CreatedAt = 100
	second := newTx("0000000002", sale.ID, "2", constants.StatusPending)
	second.CreatedAt = 200
	denied := newTx("0000000003", sale.ID, "3", constants.StatusDenied)

	for _, tx := range []TEFTransaction{second, first, denied} {
		_, err := s.RecordTransaction(tx)
		require.NoError(t, err)
	}

	pending, err := s.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "0000000001", pending[0].RequestID)
	assert.Equal(t, "0000000002", pending[1].RequestID)
}

func TestListTransactionsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 10000)
	require.NoError(t, s.CreateSale(sale))

	for i, reqID := range []string{"0000000001", "0000000002", "0000000003"} {
		tx := newTx(reqID, sale.ID, reqID, constants.StatusConfirmed)
		tx.CreatedAt = int64(100 * (i + 1))
		_, err := s.RecordTransaction(tx)
		require.NoError(t, err)
	}

	txs, err := s.ListTransactions(2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "0000000003", txs[0].RequestID)
	assert.Equal(t, "0000000002", txs[1].RequestID)
}

func TestExecTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 100)
	err := s.ExecTx(func(r Repository) error {
		if err := r.CreateSale(sale); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = s.GetSaleByID(sale.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestExecTxCommits(t *testing.T) {
	s := newTestStore(t)

	sale := newSale("NF1", 100)
	require.NoError(t, s.ExecTx(func(r Repository) error {
		if err := r.CreateSale(sale); err != nil {
			return err
		}
		_, err := r.RecordTransaction(newTx("0000000001", sale.ID, "1", constants.StatusPending))
		return err
	}))

	got, err := s.GetSaleByID(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SaleOpen, got.Status)

	pending, err := s.ListPending()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

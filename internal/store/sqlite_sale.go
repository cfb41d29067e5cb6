package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hance08/tefpos/internal/constants"
)

func (s *Store) CreateSale(sale Sale) error {
	stmt, err := s.db.Prepare(`
		INSERT INTO sales (id, document, total_cents, multi_tx, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare SQL : %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(sale.ID, sale.Document, sale.TotalCents, sale.MultiTx, sale.Status, sale.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: sales.id") {
			return fmt.Errorf("sale '%s' already exists", sale.ID)
		}
		return fmt.Errorf("failed to insert sale : %w", err)
	}

	return nil
}

func (s *Store) GetSaleByID(id string) (*Sale, error) {
	var sale Sale
	err := s.db.QueryRow(`
		SELECT id, document, total_cents, multi_tx, status, created_at
		FROM sales
		WHERE id = ?
	`, id).Scan(&sale.ID, &sale.Document, &sale.TotalCents, &sale.MultiTx, &sale.Status, &sale.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query sale: %w", err)
	}

	return &sale, nil
}

// GetOpenSale returns the single open sale, if any. The payment flow keeps
// at most one sale open at a time.
func (s *Store) GetOpenSale() (*Sale, error) {
	var sale Sale
	err := s.db.QueryRow(`
		SELECT id, document, total_cents, multi_tx, status, created_at
		FROM sales
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, constants.SaleOpen).Scan(&sale.ID, &sale.Document, &sale.TotalCents, &sale.MultiTx, &sale.Status, &sale.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoOpenSale
		}
		return nil, fmt.Errorf("failed to query open sale: %w", err)
	}

	return &sale, nil
}

func (s *Store) MarkSaleMultiTx(id string) error {
	result, err := s.db.Exec(`UPDATE sales SET multi_tx = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to flag sale as multi-transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (s *Store) CloseSale(id string, status string) error {
	result, err := s.db.Exec(`UPDATE sales SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to close sale: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

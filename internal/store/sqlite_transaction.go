package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hance08/tefpos/internal/constants"
	sqlite "github.com/mattn/go-sqlite3"
)

func (s *Store) RecordTransaction(tx TEFTransaction) (int64, error) {
	stmt, err := s.db.Prepare(`
        INSERT INTO tef_transactions
            (request_id, sale_id, kind, amount_cents, network, nsu, token, status, message, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id;
    `)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare transaction SQL: %w", err)
	}
	defer stmt.Close()

	// Standalone operations (cancel by NSU, admin) have no parent sale; an
	// empty string would trip the foreign key, so it goes in as NULL.
	saleID := sql.NullString{String: tx.SaleID, Valid: tx.SaleID != ""}

	var newID int64
	err = stmt.QueryRow(
		tx.RequestID, saleID, tx.Kind, tx.AmountCents,
		tx.Network, tx.NSU, tx.Token, tx.Status, tx.Message,
		tx.CreatedAt, tx.UpdatedAt,
	).Scan(&newID)

	if err != nil {
		var sqliteErr sqlite.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.ExtendedCode {
			case sqlite.ErrConstraintUnique, sqlite.ErrConstraintPrimaryKey:
				return 0, fmt.Errorf("%w: duplicate request_id %s", ErrConstraintViolation, tx.RequestID)
			case sqlite.ErrConstraintForeignKey:
				return 0, fmt.Errorf("%w: sale %q does not exist", ErrConstraintViolation, tx.SaleID)
			}
		}
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return newID, nil
}

func (s *Store) UpdateTransactionStatus(requestID, status, message string) error {
	result, err := s.db.Exec(`
        UPDATE tef_transactions
        SET status = ?, message = ?, updated_at = strftime('%s', 'now')
        WHERE request_id = ?
    `, status, message, requestID)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
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

func (s *Store) GetTransactionByNSU(nsu string) (*TEFTransaction, error) {
	row := s.db.QueryRow(`
        SELECT id, request_id, sale_id, kind, amount_cents, network, nsu, token, status, message, created_at, updated_at
        FROM tef_transactions
        WHERE nsu = ?
        ORDER BY created_at DESC
        LIMIT 1
    `, nsu)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query transaction by NSU: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(limit int) ([]*TEFTransaction, error) {
	rows, err := s.db.Query(`
        SELECT id, request_id, sale_id, kind, amount_cents, network, nsu, token, status, message, created_at, updated_at
        FROM tef_transactions
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListPending returns PENDING journal entries oldest first, the order they
// were approved in and the order they must be resolved in.
func (s *Store) ListPending() ([]*TEFTransaction, error) {
	rows, err := s.db.Query(`
        SELECT id, request_id, sale_id, kind, amount_cents, network, nsu, token, status, message, created_at, updated_at
        FROM tef_transactions
        WHERE status = ?
        ORDER BY created_at ASC, id ASC
    `, constants.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*TEFTransaction, error) {
	tx := &TEFTransaction{}
	var saleID sql.NullString
	err := row.Scan(
		&tx.ID,
		&tx.RequestID,
		&saleID,
		&tx.Kind,
		&tx.AmountCents,
		&tx.Network,
		&tx.NSU,
		&tx.Token,
		&tx.Status,
		&tx.Message,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.SaleID = saleID.String
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]*TEFTransaction, error) {
	var txs []*TEFTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hance08/tefpos/internal/constants"
	"github.com/hance08/tefpos/internal/store"
	"github.com/hance08/tefpos/internal/tef"
	"go.uber.org/zap"
)

// PaymentInput is what the front end collects for one operation.
type PaymentInput struct {
	Kind        tef.OperationKind
	AmountCents int64
	Document    string

	// SaleTotalCents opens a sale bigger than this payment (split payment).
	// Zero means the payment covers the whole sale.
	SaleTotalCents int64

	Installments   int
	IssuerFinanced bool

	// CANCEL / PIX_REFUND / ADMIN
	NSU      string
	Network  string
	OrigTime time.Time

	ResultTimeout time.Duration
}

// PaymentService is the caller-facing API: it drives the engine, keeps the
// journal in step with every outcome and owns the open-sale bookkeeping that
// lets split payments span process restarts.
type PaymentService struct {
	engine *tef.Engine
	repo   store.Repository
	log    *zap.Logger
}

func NewPaymentService(engine *tef.Engine, repo store.Repository, log *zap.Logger) *PaymentService {
	return &PaymentService{engine: engine, repo: repo, log: log}
}

// Rehydrate loads the journal's PENDING transactions back into the in-memory
// ledger. Without this a split payment started in a previous process run
// would lose its pending half.
func (ps *PaymentService) Rehydrate() error {
	pending, err := ps.repo.ListPending()
	if err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}

	sales := map[string]*store.Sale{}
	for _, tx := range pending {
		sale := sales[tx.SaleID]
		if sale == nil && tx.SaleID != "" {
			sale, err = ps.repo.GetSaleByID(tx.SaleID)
			if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
				return fmt.Errorf("failed to load sale %s: %w", tx.SaleID, err)
			}
			sales[tx.SaleID] = sale
		}

		entry := tef.PendingTransaction{
			RequestID:   tx.RequestID,
			SaleID:      tx.SaleID,
			Kind:        tef.OperationKind(tx.Kind),
			AmountCents: tx.AmountCents,
			Network:     tx.Network,
			NSU:         tx.NSU,
			Token:       tx.Token,
			ApprovedAt:  time.Unix(tx.CreatedAt, 0),
		}
		if sale != nil {
			entry.Document = sale.Document
			entry.MultiTx = sale.MultiTx
		}

		ps.engine.Ledger().Add(entry)
	}

	if n := ps.engine.Ledger().Len(); n > 0 {
		ps.log.Info("rehydrated pending transactions from journal", zap.Int("count", n))
	}

	return nil
}

// Submit runs one operation end to end and journals the outcome. Protocol
// failures come back as *tef.ProtocolError; the journal keeps an ERRORED
// entry for any attempt that had already consumed a request id, so an
// unknown-outcome payment is never silently lost.
func (ps *PaymentService) Submit(ctx context.Context, in PaymentInput) (*tef.Result, error) {
	req := tef.Request{
		Kind:           in.Kind,
		AmountCents:    in.AmountCents,
		Document:       in.Document,
		Installments:   in.Installments,
		IssuerFinanced: in.IssuerFinanced,
		NSU:            in.NSU,
		Network:        in.Network,
		OrigTime:       in.OrigTime,
		ResultTimeout:  in.ResultTimeout,
	}

	var sale *store.Sale
	if in.Kind.IsPayment() {
		var err error
		sale, err = ps.ensureOpenSale(in)
		if err != nil {
			return nil, err
		}
		req.SaleID = sale.ID
		req.SaleTotalCents = sale.TotalCents
	}

	res, err := ps.engine.Submit(ctx, req)
	if err != nil {
		ps.recordFailure(req, err)
		return nil, err
	}

	ps.recordResult(req, res)

	if res.MultiTx && sale != nil && !sale.MultiTx {
		if dbErr := ps.repo.MarkSaleMultiTx(sale.ID); dbErr != nil {
			ps.log.Warn("failed to flag sale as multi-transaction", zap.Error(dbErr))
		}
	}

	return res, nil
}

// ResolvePending settles the whole pending batch and journals each item.
// REVERSE closes the sale as abandoned, CONFIRM as settled.
func (ps *PaymentService) ResolvePending(ctx context.Context, decision tef.Decision) ([]tef.Resolution, error) {
	resolutions, err := ps.engine.ResolvePending(ctx, decision)
	if err != nil {
		return nil, err
	}

	status := constants.StatusConfirmed
	saleStatus := constants.SaleSettled
	if decision == tef.DecisionReverse {
		status = constants.StatusReversed
		saleStatus = constants.SaleAbandoned
	}

	for _, r := range resolutions {
		if !r.Accepted {
			continue
		}
		if dbErr := ps.repo.UpdateTransactionStatus(r.Pending.RequestID, status, r.Message); dbErr != nil {
			ps.log.Warn("failed to journal resolution",
				zap.String("request_id", r.Pending.RequestID),
				zap.Error(dbErr))
		}
	}

	if ps.engine.Ledger().Len() == 0 {
		ps.closeOpenSale(saleStatus)
	}

	return resolutions, nil
}

// CancelOne voids a single pending transaction by NSU.
func (ps *PaymentService) CancelOne(ctx context.Context, nsu string) (*tef.Result, error) {
	entry, ok := ps.engine.Ledger().FindByNSU(nsu)
	if !ok {
		return nil, tef.ErrNotFound
	}

	res, err := ps.engine.CancelOne(ctx, nsu)
	if err != nil {
		return nil, err
	}

	if res.Approved {
		if dbErr := ps.repo.UpdateTransactionStatus(entry.RequestID, constants.StatusCancelled, res.Message); dbErr != nil {
			ps.log.Warn("failed to journal cancellation",
				zap.String("request_id", entry.RequestID),
				zap.Error(dbErr))
		}
		if ps.engine.Ledger().Len() == 0 {
			ps.closeOpenSale(constants.SaleAbandoned)
		}
	}

	return res, nil
}

// DropPending abandons the ledger without resolving it at the engine. The
// journal entries go to ERRORED so they resurface in history as unresolved
// instead of being rehydrated as live pending state.
func (ps *PaymentService) DropPending() []tef.PendingTransaction {
	dropped := ps.engine.DropPending()
	for _, tx := range dropped {
		if err := ps.repo.UpdateTransactionStatus(tx.RequestID, constants.StatusErrored, "dropped without resolution"); err != nil {
			ps.log.Warn("failed to journal dropped transaction",
				zap.String("request_id", tx.RequestID),
				zap.Error(err))
		}
	}
	if len(dropped) > 0 {
		ps.closeOpenSale(constants.SaleAbandoned)
	}
	return dropped
}

func (ps *PaymentService) Pending() []tef.PendingTransaction {
	return ps.engine.Ledger().Pending()
}

func (ps *PaymentService) CurrentSale() (*store.Sale, error) {
	return ps.repo.GetOpenSale()
}

// OutstandingBalance is what remains unpaid of the open sale, or zero when
// there is none.
func (ps *PaymentService) OutstandingBalance() int64 {
	sale, err := ps.repo.GetOpenSale()
	if err != nil {
		return 0
	}
	return ps.engine.Ledger().OutstandingBalance(sale.TotalCents)
}

func (ps *PaymentService) History(limit int) ([]*store.TEFTransaction, error) {
	return ps.repo.ListTransactions(limit)
}

func (ps *PaymentService) ensureOpenSale(in PaymentInput) (*store.Sale, error) {
	sale, err := ps.repo.GetOpenSale()
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, store.ErrNoOpenSale) {
		return nil, fmt.Errorf("failed to look up open sale: %w", err)
	}

	total := in.SaleTotalCents
	if total == 0 {
		total = in.AmountCents
	}

	sale = &store.Sale{
		ID:         uuid.NewString(),
		Document:   in.Document,
		TotalCents: total,
		Status:     constants.SaleOpen,
		CreatedAt:  time.Now().Unix(),
	}
	if err := ps.repo.CreateSale(*sale); err != nil {
		return nil, fmt.Errorf("failed to open sale: %w", err)
	}

	return sale, nil
}

func (ps *PaymentService) closeOpenSale(status string) {
	sale, err := ps.repo.GetOpenSale()
	if err != nil {
		return
	}
	if err := ps.repo.CloseSale(sale.ID, status); err != nil {
		ps.log.Warn("failed to close sale", zap.String("sale_id", sale.ID), zap.Error(err))
	}
}

func (ps *PaymentService) recordFailure(req tef.Request, err error) {
	id := tef.FailedRequestID(err)
	if id == "" {
		// The request never consumed an identifier; nothing reached the
		// engine's queue.
		return
	}

	now := time.Now().Unix()
	_, dbErr := ps.repo.RecordTransaction(store.TEFTransaction{
		RequestID:   id,
		SaleID:      req.SaleID,
		Kind:        string(req.Kind),
		AmountCents: req.AmountCents,
		Status:      constants.StatusErrored,
		Message:     string(tef.ClassifyFailure(err)),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if dbErr != nil {
		ps.log.Warn("failed to journal errored transaction", zap.String("request_id", id), zap.Error(dbErr))
	}
}

func (ps *PaymentService) recordResult(req tef.Request, res *tef.Result) {
	status := constants.StatusDenied
	if res.Approved {
		switch {
		case req.Kind.IsPayment():
			status = constants.StatusPending
		case req.Kind == tef.KindCancel || req.Kind == tef.KindPixRefund:
			status = constants.StatusCancelled
		default:
			status = constants.StatusConfirmed
		}
	}

	now := time.Now().Unix()
	_, err := ps.repo.RecordTransaction(store.TEFTransaction{
		RequestID:   res.RequestID,
		SaleID:      req.SaleID,
		Kind:        string(req.Kind),
		AmountCents: req.AmountCents,
		Network:     res.Network,
		NSU:         res.NSU,
		Token:       res.Token,
		Status:      status,
		Message:     res.Message,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		ps.log.Warn("failed to journal transaction", zap.String("request_id", res.RequestID), zap.Error(err))
	}

	// An approved cancel also settles the journal entry of the original
	// payment when we still know it.
	if res.Approved && (req.Kind == tef.KindCancel || req.Kind == tef.KindPixRefund) && req.NSU != "" {
		orig, err := ps.repo.GetTransactionByNSU(req.NSU)
		if err == nil && orig.Status == constants.StatusPending {
			if dbErr := ps.repo.UpdateTransactionStatus(orig.RequestID, constants.StatusCancelled, res.Message); dbErr != nil {
				ps.log.Warn("failed to journal original payment cancellation", zap.Error(dbErr))
			}
		}
	}
}

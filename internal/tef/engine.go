package tef

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hance08/tefpos/internal/constants"
	"go.uber.org/zap"
)

type OperationKind string

const (
	KindCredit            OperationKind = "CREDIT"
	KindDebit             OperationKind = "DEBIT"
	KindCreditInstallment OperationKind = "CREDIT_INSTALLMENT"
	KindPixPayment        OperationKind = "PIX_PAYMENT"
	KindCancel            OperationKind = "CANCEL"
	KindPixRefund         OperationKind = "PIX_REFUND"
	KindAdmin             OperationKind = "ADMIN"
)

// payment kinds enter the pending ledger on approval; the others resolve or
// administer existing state.
func (k OperationKind) IsPayment() bool {
	switch k {
	case KindCredit, KindDebit, KindCreditInstallment, KindPixPayment:
		return true
	}
	return false
}

type Decision string

const (
	DecisionConfirm Decision = "CONFIRM"
	DecisionReverse Decision = "REVERSE"
)

// Request is one operation submitted by the caller.
type Request struct {
	Kind        OperationKind
	AmountCents int64
	Document    string

	// SaleID correlates split payments in the journal; opaque to the engine.
	SaleID string

	// CREDIT_INSTALLMENT only
	Installments   int
	IssuerFinanced bool

	// CANCEL / PIX_REFUND / ADMIN
	NSU      string
	Network  string
	OrigTime time.Time

	// SaleTotalCents lets the engine detect a split payment: submitting less
	// than the outstanding balance flags the request as one of multiple
	// transactions in the sale.
	SaleTotalCents int64

	// ResultTimeout overrides the configured result wait when positive.
	ResultTimeout time.Duration
}

// Result is the engine's answer to a completed exchange. Protocol failures
// (I/O, no ack, no result) are returned as *ProtocolError instead.
type Result struct {
	RequestID   string
	Kind        OperationKind
	Approved    bool
	Code        string
	Message     string
	Network     string
	NSU         string
	Token       string
	AmountCents int64
	MultiTx     bool
}

// Resolution is the outcome of one CNF/NCN request of a batch resolve.
type Resolution struct {
	Pending   PendingTransaction
	Decision  Decision
	RequestID string
	Accepted  bool
	Code      string
	Message   string
	Err       error
}

// Engine drives the request/response file handshake with the TEF client and
// owns the transaction lifecycle: build fields per operation, write the
// request atomically, wait for ack and result, classify the outcome and feed
// the pending ledger.
type Engine struct {
	writer *RequestWriter
	waiter *ResponseWaiter
	seq    Sequencer
	ledger *Ledger
	pacing time.Duration
	log    *zap.Logger

	// flight enforces at most one exchange with the engine at a time.
	flight sync.Mutex
}

func NewEngine(writer *RequestWriter, waiter *ResponseWaiter, seq Sequencer, ledger *Ledger, pacing time.Duration, log *zap.Logger) *Engine {
	return &Engine{
		writer: writer,
		waiter: waiter,
		seq:    seq,
		ledger: ledger,
		pacing: pacing,
		log:    log,
	}
}

func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// PrepareDirectories creates the request/response directories if absent and
// purges protocol files left over from a crashed run, so a stale result can
// never be read as the answer to a new request.
func PrepareDirectories(reqDir, respDir string, log *zap.Logger) error {
	for _, dir := range []string{reqDir, respDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create TEF directory %s: %w", dir, err)
		}
	}

	stale := []string{
		filepath.Join(reqDir, constants.RequestTempFile),
		filepath.Join(reqDir, constants.RequestFile),
		filepath.Join(respDir, constants.AckFile),
		filepath.Join(respDir, constants.ResponseFile),
	}
	for _, path := range stale {
		if err := os.Remove(path); err == nil {
			log.Warn("purged stale protocol file", zap.String("path", path))
		}
	}

	return nil
}

// Submit runs one full operation against the engine. It rejects the call
// with ErrOperationInFlight while a previous operation is unresolved.
func (e *Engine) Submit(ctx context.Context, req Request) (*Result, error) {
	if !e.flight.TryLock() {
		return nil, ErrOperationInFlight
	}
	defer e.flight.Unlock()

	return e.submit(ctx, req)
}

func (e *Engine) submit(ctx context.Context, req Request) (*Result, error) {
	rec, multi, err := e.buildRequest(req)
	if err != nil {
		return nil, err
	}

	resp, id, err := e.exchange(ctx, rec, req.ResultTimeout)
	if err != nil {
		return nil, err
	}

	return e.interpret(req, resp, id, multi), nil
}

// ResolvePending settles every ledger entry with one CNF or NCN request
// each, sequentially and with the configured pacing between requests. Each
// request consumes a fresh identifier. A failed item does not stop the
// batch; its error comes back in the matching Resolution.
func (e *Engine) ResolvePending(ctx context.Context, decision Decision) ([]Resolution, error) {
	if !e.flight.TryLock() {
		return nil, ErrOperationInFlight
	}
	defer e.flight.Unlock()

	pending := e.ledger.Pending()
	if len(pending) == 0 {
		return nil, ErrNoPending
	}

	multi := e.ledger.MultiInstrument()

	resolutions := make([]Resolution, 0, len(pending))
	for i, tx := range pending {
		if i > 0 {
			if err := sleepCtx(ctx, e.pacing); err != nil {
				resolutions = append(resolutions, Resolution{Pending: tx, Decision: decision, Err: err})
				continue
			}
		}

		resolutions = append(resolutions, e.resolveOne(ctx, tx, decision, multi))
	}

	return resolutions, nil
}

func (e *Engine) resolveOne(ctx context.Context, tx PendingTransaction, decision Decision, multi bool) Resolution {
	rec := e.buildResolution(tx, decision, multi)

	resp, id, err := e.exchange(ctx, rec, 0)
	res := Resolution{Pending: tx, Decision: decision, RequestID: id}
	if err != nil {
		res.Err = err
		return res
	}

	res.Code = resp.Get(constants.FieldResultCode)
	res.Message = resp.Get(constants.FieldMessage)
	if res.Code == constants.ResultApproved {
		res.Accepted = true
		e.ledger.Remove(tx.NSU)
	}

	return res
}

// CancelOne voids a single pending transaction, looked up by NSU. Card
// payments go out as a CNC, PIX payments as the administrative refund.
func (e *Engine) CancelOne(ctx context.Context, nsu string) (*Result, error) {
	if !e.flight.TryLock() {
		return nil, ErrOperationInFlight
	}
	defer e.flight.Unlock()

	tx, ok := e.ledger.FindByNSU(nsu)
	if !ok {
		return nil, ErrNotFound
	}

	kind := KindCancel
	if tx.Kind == KindPixPayment {
		kind = KindPixRefund
	}

	res, err := e.submit(ctx, Request{
		Kind:        kind,
		AmountCents: tx.AmountCents,
		Document:    tx.Document,
		NSU:         tx.NSU,
		Network:     tx.Network,
		OrigTime:    tx.ApprovedAt,
	})
	if err != nil {
		return nil, err
	}

	if res.Approved {
		e.ledger.Remove(nsu)
	}

	return res, nil
}

// DropPending abandons the ledger without telling the engine. The
// transactions stay open on the engine side; callers must surface that.
func (e *Engine) DropPending() []PendingTransaction {
	dropped := e.ledger.DropAll()
	if len(dropped) > 0 {
		e.log.Warn("pending transactions dropped without resolution",
			zap.Int("count", len(dropped)))
	}
	return dropped
}

// exchange is one write→ack→result cycle: drain leftovers, stamp a fresh
// request id, publish the request, wait out both stages.
func (e *Engine) exchange(ctx context.Context, rec Record, resultTimeout time.Duration) (Record, string, error) {
	for _, path := range e.waiter.Drain() {
		e.log.Warn("discarded late response file from a previous cycle", zap.String("path", path))
	}

	id := e.seq.Next()
	rec[constants.FieldRequestID] = id

	e.log.Info("sending request",
		zap.String("request_id", id),
		zap.String("operation", rec.Get(constants.FieldOperation)),
		zap.Any("fields", rec))

	if err := e.writer.Write(rec); err != nil {
		e.log.Error("request write failed", zap.String("request_id", id), zap.Error(err))
		return nil, id, stampRequestID(err, id)
	}

	resp, err := e.waiter.Await(ctx, resultTimeout)
	if err != nil {
		e.log.Error("response wait failed",
			zap.String("request_id", id),
			zap.String("classification", string(ClassifyFailure(err))),
			zap.Error(err))
		return nil, id, stampRequestID(err, id)
	}

	e.log.Info("received response",
		zap.String("request_id", id),
		zap.String("result_code", resp.Get(constants.FieldResultCode)),
		zap.Any("fields", resp))

	return resp, id, nil
}

func (e *Engine) buildRequest(req Request) (Record, bool, error) {
	rec := Record{}
	multi := false

	switch req.Kind {
	case KindCredit, KindDebit, KindCreditInstallment:
		if err := requirePayment(req); err != nil {
			return nil, false, err
		}
		rec[constants.FieldOperation] = constants.OpPayment
		rec[constants.FieldDocument] = req.Document
		rec[constants.FieldAmount] = fmt.Sprintf("%d", req.AmountCents)
		switch req.Kind {
		case KindCredit:
			rec[constants.FieldSubtype] = constants.SubtypeCredit
		case KindDebit:
			rec[constants.FieldSubtype] = constants.SubtypeDebit
		case KindCreditInstallment:
			if req.Installments < constants.MinInstallments || req.Installments > constants.MaxInstallments {
				return nil, false, fmt.Errorf("installments must be between %d and %d (got %d)",
					constants.MinInstallments, constants.MaxInstallments, req.Installments)
			}
			if req.IssuerFinanced {
				rec[constants.FieldSubtype] = constants.SubtypeCreditIssuer
				rec[constants.FieldFinancing] = constants.FinancingIssuer
			} else {
				rec[constants.FieldSubtype] = constants.SubtypeCreditInstallment
				rec[constants.FieldFinancing] = constants.FinancingMerchant
			}
			rec[constants.FieldInstallments] = fmt.Sprintf("%02d", req.Installments)
		}

	case KindPixPayment:
		if err := requirePayment(req); err != nil {
			return nil, false, err
		}
		rec[constants.FieldOperation] = constants.OpPix
		rec[constants.FieldDocument] = req.Document
		rec[constants.FieldAmount] = fmt.Sprintf("%d", req.AmountCents)

	case KindCancel:
		if req.NSU == "" {
			return nil, false, fmt.Errorf("cancel requires the original NSU")
		}
		if req.Document == "" {
			return nil, false, fmt.Errorf("cancel requires the fiscal document")
		}
		rec[constants.FieldOperation] = constants.OpCancel
		rec[constants.FieldDocument] = req.Document
		rec[constants.FieldNSU] = req.NSU
		if req.AmountCents > 0 {
			rec[constants.FieldAmount] = fmt.Sprintf("%d", req.AmountCents)
		}
		if !req.OrigTime.IsZero() {
			rec[constants.FieldOrigDate] = req.OrigTime.Format(constants.OrigDateFormat)
			rec[constants.FieldOrigTime] = req.OrigTime.Format(constants.OrigTimeFormat)
		}
		if req.Network != "" {
			rec[constants.FieldNetwork] = req.Network
		}

	case KindPixRefund:
		if req.NSU == "" {
			return nil, false, fmt.Errorf("PIX refund requires the original NSU")
		}
		if req.AmountCents <= 0 {
			return nil, false, fmt.Errorf("PIX refund requires the original amount")
		}
		rec[constants.FieldOperation] = constants.OpAdmin
		rec[constants.FieldAmount] = fmt.Sprintf("%d", req.AmountCents)
		rec[constants.FieldNSU] = req.NSU
		if !req.OrigTime.IsZero() {
			rec[constants.FieldPixOrigDate] = req.OrigTime.Format(constants.OrigDateFormat)
		}

	case KindAdmin:
		rec[constants.FieldOperation] = constants.OpAdmin
		if req.NSU != "" {
			rec[constants.FieldNSU] = req.NSU
		}

	default:
		return nil, false, fmt.Errorf("unknown operation kind: %s", req.Kind)
	}

	if req.Kind.IsPayment() {
		multi = e.isSplitPayment(req)
		if multi {
			rec[constants.FieldMultiTx] = constants.MultiTxFlag
			e.ledger.MarkMultiInstrument()
		}
	}

	return rec, multi, nil
}

// isSplitPayment: the sale already holds an approved-pending transaction, or
// this amount covers less than what is still outstanding.
func (e *Engine) isSplitPayment(req Request) bool {
	if e.ledger.Len() > 0 {
		return true
	}
	if req.SaleTotalCents > 0 && req.AmountCents < e.ledger.OutstandingBalance(req.SaleTotalCents) {
		return true
	}
	return false
}

// buildResolution assembles a CNF/NCN record. Network, NSU and token are
// mandatory; if the approval somehow lacked one the request still goes out
// with what we have, but the gap is logged as a protocol violation. Skipping
// would strand an approved transaction.
func (e *Engine) buildResolution(tx PendingTransaction, decision Decision, multi bool) Record {
	rec := Record{}
	if decision == DecisionConfirm {
		rec[constants.FieldOperation] = constants.OpConfirm
	} else {
		rec[constants.FieldOperation] = constants.OpReverse
	}

	rec[constants.FieldDocument] = tx.Document
	rec[constants.FieldNetwork] = tx.Network
	rec[constants.FieldNSU] = tx.NSU
	rec[constants.FieldToken] = tx.Token
	if multi {
		rec[constants.FieldMultiTx] = constants.MultiTxFlag
	}

	if tx.Network == "" || tx.NSU == "" || tx.Token == "" {
		e.log.Error("protocol violation: resolution is missing mandatory engine fields",
			zap.String("decision", string(decision)),
			zap.String("nsu", tx.NSU),
			zap.String("network", tx.Network),
			zap.Bool("has_token", tx.Token != ""))
	}

	return rec
}

func (e *Engine) interpret(req Request, resp Record, id string, multi bool) *Result {
	res := &Result{
		RequestID:   id,
		Kind:        req.Kind,
		Code:        resp.Get(constants.FieldResultCode),
		Message:     resp.Get(constants.FieldMessage),
		AmountCents: req.AmountCents,
		MultiTx:     multi,
	}

	if res.Code != constants.ResultApproved {
		return res
	}

	res.Approved = true
	res.Network = resp.Get(constants.FieldNetwork)
	res.NSU = resp.Get(constants.FieldNSU)
	res.Token = resp.Get(constants.FieldToken)

	if req.Kind.IsPayment() {
		// These three come back verbatim on the eventual confirm/reverse.
		// They are never defaulted here; an absent one is an engine anomaly
		// worth flagging now, not at settlement time.
		if res.Network == "" || res.NSU == "" || res.Token == "" {
			e.log.Error("approval response is missing settlement fields",
				zap.String("request_id", id),
				zap.String("nsu", res.NSU),
				zap.String("network", res.Network),
				zap.Bool("has_token", res.Token != ""))
		}

		e.ledger.Add(PendingTransaction{
			RequestID:   id,
			SaleID:      req.SaleID,
			Kind:        req.Kind,
			AmountCents: req.AmountCents,
			Document:    req.Document,
			Network:     res.Network,
			NSU:         res.NSU,
			Token:       res.Token,
			MultiTx:     multi,
			ApprovedAt:  time.Now(),
		})
	}

	return res
}

func requirePayment(req Request) error {
	if req.AmountCents <= 0 {
		return fmt.Errorf("amount must be positive (got %d)", req.AmountCents)
	}
	if req.Document == "" {
		return fmt.Errorf("fiscal document is required")
	}
	return nil
}

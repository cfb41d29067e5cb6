package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hance08/tefpos/internal/constants"
	"github.com/hance08/tefpos/internal/store"
	"github.com/hance08/tefpos/internal/tef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc     *PaymentService
	repo    store.Repository
	reqDir  string
	respDir string
	codec   *tef.Codec
	dbPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reqDir := t.TempDir()
	respDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "tefpos.db")

	codec, err := tef.NewCodec("")
	require.NoError(t, err)

	repo, err := store.NewStore(dbPath, os.DirFS("../.."))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return &testEnv{
		svc:     newServiceOver(t, reqDir, respDir, codec, repo),
		repo:    repo,
		reqDir:  reqDir,
		respDir: respDir,
		codec:   codec,
		dbPath:  dbPath,
	}
}

// newServiceOver builds a PaymentService with a fresh engine and ledger over
// existing directories and journal, simulating a process restart when called
// twice against the same environment.
func newServiceOver(t *testing.T, reqDir, respDir string, codec *tef.Codec, repo store.Repository) *PaymentService {
	t.Helper()

	cfg := tef.WaitConfig{
		AckTimeout:     time.Second,
		AckInterval:    5 * time.Millisecond,
		ResultTimeout:  time.Second,
		ResultInterval: 5 * time.Millisecond,
		SettleDelay:    5 * time.Millisecond,
	}

	log := zap.NewNop()
	writer := tef.NewRequestWriter(reqDir, codec)
	waiter := tef.NewResponseWaiter(respDir, codec, cfg, log)
	seq := tef.NewFileSequence(filepath.Join(reqDir, "sequence.dat"), log)
	engine := tef.NewEngine(writer, waiter, seq, tef.NewLedger(), 5*time.Millisecond, log)

	return NewPaymentService(engine, repo, log)
}

// answer plays the engine side for the next n requests.
func (env *testEnv) answer(t *testing.T, results []tef.Record) {
	t.Helper()

	go func() {
		reqPath := filepath.Join(env.reqDir, constants.RequestFile)
		for _, result := range results {
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				if _, err := os.Stat(reqPath); err == nil {
					os.Remove(reqPath)
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			os.WriteFile(filepath.Join(env.respDir, constants.AckFile), []byte("0"), 0644)
			time.Sleep(20 * time.Millisecond)

			data, err := env.codec.Encode(result)
			if err != nil {
				return
			}
			os.WriteFile(filepath.Join(env.respDir, constants.ResponseFile), data, 0644)
		}
	}()
}

func approval(nsu string) tef.Record {
	return tef.Record{
		constants.FieldOperation:  "CRT",
		constants.FieldResultCode: "0",
		constants.FieldNetwork:    "VISA",
		constants.FieldNSU:        nsu,
		constants.FieldToken:      "TK" + nsu,
	}
}

func TestSubmitOpensSaleAndJournalsPending(t *testing.T) {
	env := newTestEnv(t)
	env.answer(t, []tef.Record{approval("0000000042")})

	res, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:        tef.KindCredit,
		AmountCents: 10000,
		Document:    "NF1234",
	})
	require.NoError(t, err)
	require.True(t, res.Approved)

	sale, err := env.svc.CurrentSale()
	require.NoError(t, err)
	assert.Equal(t, "NF1234", sale.Document)
	assert.Equal(t, int64(10000), sale.TotalCents)

	pending, err := env.repo.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.RequestID, pending[0].RequestID)
	assert.Equal(t, "0000000042", pending[0].NSU)
	assert.Equal(t, sale.ID, pending[0].SaleID)
}

func TestRehydrateRestoresLedgerAcrossRestart(t *testing.T) {
	env := newTestEnv(t)
	env.answer(t, []tef.Record{approval("0000000042")})

	_, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:           tef.KindCredit,
		AmountCents:    6000,
		Document:       "NF1234",
		SaleTotalCents: 10000,
	})
	require.NoError(t, err)

	// new process: fresh engine and empty ledger over the same journal
	restarted := newServiceOver(t, env.reqDir, env.respDir, env.codec, env.repo)
	assert.Empty(t, restarted.Pending())

	require.NoError(t, restarted.Rehydrate())

	pending := restarted.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "0000000042", pending[0].NSU)
	assert.Equal(t, "NF1234", pending[0].Document)
	assert.Equal(t, int64(6000), pending[0].AmountCents)

	assert.Equal(t, int64(4000), restarted.OutstandingBalance())
}

func TestResolveConfirmSettlesSale(t *testing.T) {
	env := newTestEnv(t)
	env.answer(t, []tef.Record{approval("0000000042")})

	res, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:        tef.KindCredit,
		AmountCents: 10000,
		Document:    "NF1",
	})
	require.NoError(t, err)

	env.answer(t, []tef.Record{{
		constants.FieldOperation:  "CNF",
		constants.FieldResultCode: "0",
	}})

	resolutions, err := env.svc.ResolvePending(context.Background(), tef.DecisionConfirm)
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.True(t, resolutions[0].Accepted)

	txs, err := env.svc.History(10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, res.RequestID, txs[0].RequestID)
	assert.Equal(t, constants.StatusConfirmed, txs[0].Status)

	_, err = env.svc.CurrentSale()
	assert.ErrorIs(t, err, store.ErrNoOpenSale)
}

func TestCancelOneSettlesJournalAndSale(t *testing.T) {
	env := newTestEnv(t)
	env.answer(t, []tef.Record{approval("0000000042")})

	_, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:        tef.KindCredit,
		AmountCents: 10000,
		Document:    "NF1",
	})
	require.NoError(t, err)

	env.answer(t, []tef.Record{{
		constants.FieldOperation:  "CNC",
		constants.FieldResultCode: "0",
	}})

	res, err := env.svc.CancelOne(context.Background(), "0000000042")
	require.NoError(t, err)
	assert.True(t, res.Approved)

	orig, err := env.repo.GetTransactionByNSU("0000000042")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCancelled, orig.Status)

	_, err = env.svc.CurrentSale()
	assert.ErrorIs(t, err, store.ErrNoOpenSale)
}

func TestStandaloneCancelJournalsWithoutSale(t *testing.T) {
	env := newTestEnv(t)
	env.answer(t, []tef.Record{{
		constants.FieldOperation:  "CNC",
		constants.FieldResultCode: "0",
	}})

	// Voiding a transaction from an earlier batch: no open sale, no ledger
	// entry, just the original data supplied by the caller.
	res, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:        tef.KindCancel,
		AmountCents: 10000,
		Document:    "NF1",
		NSU:         "0000000042",
	})
	require.NoError(t, err)
	assert.True(t, res.Approved)

	txs, err := env.svc.History(10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, string(tef.KindCancel), txs[0].Kind)
	assert.Empty(t, txs[0].SaleID)
	assert.Equal(t, constants.StatusCancelled, txs[0].Status)

	_, err = env.svc.CurrentSale()
	assert.ErrorIs(t, err, store.ErrNoOpenSale)
}

func TestSubmitFailureJournalsErroredAttempt(t *testing.T) {
	env := newTestEnv(t)
	// no responder: the exchange dies waiting for the ack

	_, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:        tef.KindCredit,
		AmountCents: 10000,
		Document:    "NF1",
	})
	require.Error(t, err)
	assert.Equal(t, tef.FailureEngineUnresponsive, tef.ClassifyFailure(err))
	failedID := tef.FailedRequestID(err)

	txs, err := env.svc.History(10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, constants.StatusErrored, txs[0].Status)
	assert.Equal(t, failedID, txs[0].RequestID)
}

func TestDropPendingMarksJournalErrored(t *testing.T) {
	env := newTestEnv(t)
	env.answer(t, []tef.Record{approval("0000000042")})

	_, err := env.svc.Submit(context.Background(), PaymentInput{
		Kind:        tef.KindCredit,
		AmountCents: 10000,
		Document:    "NF1",
	})
	require.NoError(t, err)

	dropped := env.svc.DropPending()
	require.Len(t, dropped, 1)
	assert.Empty(t, env.svc.Pending())

	tx, err := env.repo.GetTransactionByNSU("0000000042")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusErrored, tx.Status)

	_, err = env.svc.CurrentSale()
	assert.ErrorIs(t, err, store.ErrNoOpenSale)
}

package ingest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

type fakeProvider struct {
	pages      map[string][]provider.TransferPage
	sends      []provider.Send
	failAlways error
}

func (f *fakeProvider) ListBalances(ctx context.Context, wallet string) ([]provider.Balance, error) {
	return nil, nil
}

func (f *fakeProvider) ListTransfers(ctx context.Context, wallet, fungibleID, cursor string) (provider.TransferPage, error) {
	if f.failAlways != nil {
		return provider.TransferPage{}, f.failAlways
	}
	pages := f.pages[fungibleID]
	idx := 0
	if cursor != "" {
		idx = 1
	}
	if idx >= len(pages) {
		return provider.TransferPage{}, nil
	}
	return pages[idx], nil
}

func (f *fakeProvider) ListRecentSends(ctx context.Context, wallet string, sinceHours int) ([]provider.Send, error) {
	return f.sends, nil
}

func (f *fakeProvider) IsEOA(ctx context.Context, address string) (*bool, error) { return nil, nil }

type fakeStore struct {
	replaced  []models.Transfer
	inserted  []models.Transfer
	upsertErr error
}

func (s *fakeStore) ReplaceTransferHistory(ctx context.Context, wallet, fungibleID string, transfers []models.Transfer) error {
	s.replaced = transfers
	return nil
}

func (s *fakeStore) UpsertTransfersIgnore(ctx context.Context, transfers []models.Transfer) (int, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.inserted = append(s.inserted, transfers...)
	return len(transfers), nil
}

func testLogger() *logger.Logger { return logger.NewLogger("error") }

func TestIngestor_FetchFullHistory_Paginates(t *testing.T) {
	p := &fakeProvider{pages: map[string][]provider.TransferPage{
		"T": {
			{Transfers: []models.Transfer{{TransactionHash: "a"}}, NextCursor: "c1", HasMore: true},
			{Transfers: []models.Transfer{{TransactionHash: "b"}}, HasMore: false},
		},
	}}
	store := &fakeStore{}
	ing := New(p, store, 3, testLogger())

	transfers, err := ing.FetchFullHistory(context.Background(), "W", "T")
	require.NoError(t, err)
	assert.Len(t, transfers, 2)
}

func TestIngestor_FetchFullHistory_FatalFailsImmediately(t *testing.T) {
	p := &fakeProvider{failAlways: errs.AsFatal(assertErr("bad request"))}
	store := &fakeStore{}
	ing := New(p, store, 3, testLogger())

	_, err := ing.FetchFullHistory(context.Background(), "W", "T")
	require.Error(t, err)
	var ingestErr *IngestError
	assert.ErrorAs(t, err, &ingestErr)
}

func TestIngestor_ReplaceHistory_WritesThroughStore(t *testing.T) {
	p := &fakeProvider{pages: map[string][]provider.TransferPage{
		"T": {{Transfers: []models.Transfer{{TransactionHash: "a"}}, HasMore: false}},
	}}
	store := &fakeStore{}
	ing := New(p, store, 1, testLogger())

	require.NoError(t, ing.ReplaceHistory(context.Background(), "W", "T"))
	assert.Len(t, store.replaced, 1)
}

func TestIngestor_IngestIncremental_IntegrityConflictIsNotAFailure(t *testing.T) {
	store := &fakeStore{upsertErr: errs.ClassifyPgError(&pgconn.PgError{Code: "23505"})}
	ing := New(&fakeProvider{}, store, 1, testLogger())

	inserted, err := ing.IngestIncremental(context.Background(), []models.Transfer{{TransactionHash: "dup"}})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

func assertErr(msg string) error { return &simpleErr{msg} }

type simpleErr struct{ msg string }

func (e *simpleErr) Error() string { return e.msg }

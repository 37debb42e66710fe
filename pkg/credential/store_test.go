package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramp-watch/pkg/client"
	"ramp-watch/pkg/types"
)

const testWallet = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

type fakeExchanger struct {
	token string
	err   error
	calls int
}

func (f *fakeExchanger) ExchangeCredential(ctx context.Context, walletAddress string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func newTestStore(t *testing.T, ex Exchanger) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewStore(path, ex)
	require.NoError(t, err)
	return store
}

func TestGetOrCreateExchangesAndPersists(t *testing.T) {
	ex := &fakeExchanger{token: "tok_new"}
	store := newTestStore(t, ex)

	cred, err := store.GetOrCreate(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, "tok_new", cred.Token)
	assert.Equal(t, testWallet, cred.WalletAddress)
	assert.False(t, cred.Reused)
	assert.Equal(t, 1, ex.calls)

	// A fresh store over the same file must see the persisted token.
	reloaded, err := NewStore(store.FilePath(), ex)
	require.NoError(t, err)

	cred2, err := reloaded.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "tok_new", cred2.Token)
	assert.True(t, cred2.Reused)
	assert.Equal(t, 1, ex.calls, "persisted token must not trigger another exchange")
}

func TestGetOrCreateReusesCachedToken(t *testing.T) {
	ex := &fakeExchanger{token: "tok_a"}
	store := newTestStore(t, ex)

	_, err := store.GetOrCreate(context.Background(), testWallet)
	require.NoError(t, err)

	cred, err := store.GetOrCreate(context.Background(), testWallet)
	require.NoError(t, err)
	assert.True(t, cred.Reused)
	assert.Equal(t, 1, ex.calls)
}

func TestGetOrCreateNoWalletNoCache(t *testing.T) {
	store := newTestStore(t, &fakeExchanger{token: "tok"})

	_, err := store.GetOrCreate(context.Background(), "")
	require.Error(t, err)

	var authErr *client.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestGetOrCreateRejectsBadWallet(t *testing.T) {
	ex := &fakeExchanger{token: "tok"}
	store := newTestStore(t, ex)

	_, err := store.GetOrCreate(context.Background(), "definitely-not-hex")
	require.Error(t, err)

	var authErr *client.AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, ex.calls)
}

func TestGetOrCreateExchangeFailure(t *testing.T) {
	ex := &fakeExchanger{err: errors.New("rail down")}
	store := newTestStore(t, ex)

	_, err := store.GetOrCreate(context.Background(), testWallet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rail down")
}

func TestClearForcesReExchange(t *testing.T) {
	ex := &fakeExchanger{token: "tok_1"}
	store := newTestStore(t, ex)

	_, err := store.GetOrCreate(context.Background(), testWallet)
	require.NoError(t, err)
	require.NoError(t, store.Clear())

	// Wallet address survives a clear, so re-auth needs no new input.
	assert.Equal(t, testWallet, store.WalletAddress())

	ex.token = "tok_2"
	cred, err := store.GetOrCreate(context.Background(), store.WalletAddress())
	require.NoError(t, err)
	assert.Equal(t, "tok_2", cred.Token)
	assert.Equal(t, 2, ex.calls)
}

func TestCurrentOrderRoundTrip(t *testing.T) {
	store := newTestStore(t, &fakeExchanger{token: "tok"})

	id, st := store.CurrentOrder()
	assert.Empty(t, id)
	assert.Equal(t, types.StatusPending, st)

	require.NoError(t, store.SetCurrentOrder("ord_1", types.StatusProcessing))

	id, st = store.CurrentOrder()
	assert.Equal(t, "ord_1", id)
	assert.Equal(t, types.StatusProcessing, st)
}

func TestSessionFilePermissions(t *testing.T) {
	store := newTestStore(t, &fakeExchanger{token: "tok"})

	_, err := store.GetOrCreate(context.Background(), testWallet)
	require.NoError(t, err)

	info, err := os.Stat(store.FilePath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

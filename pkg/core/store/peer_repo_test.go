package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_synthesis/pkg/core/valuation"
)

func newFileRepo(t *testing.T) *PeerSetRepo {
	t.Helper()
	repo, err := NewPeerSetRepo(nil, t.TempDir())
	require.NoError(t, err)
	repo.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return repo
}

func softwarePeers() []valuation.FinancialEntity {
	return []valuation.FinancialEntity{
		{Name: "Alpha", Ticker: "alp", EBITDA: 10, SharePrice: 20, SharesOutstanding: 5},
		{Name: "Beta", EBITDA: 12, SharePrice: 30, SharesOutstanding: 4},
	}
}

func TestPeerSetRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newFileRepo(t)

	set := &PeerSet{Name: "  US Software ", Entities: softwarePeers()}
	require.NoError(t, repo.Save(ctx, set))

	assert.Equal(t, "us-software", set.Name)
	assert.Equal(t, SetPeers, set.Kind)
	assert.NotEmpty(t, set.ID)

	got, err := repo.Get(ctx, "US Software")
	require.NoError(t, err)
	assert.Equal(t, set.ID, got.ID)
	assert.Equal(t, "ALP", got.Entities[0].Ticker)
	assert.Equal(t, valuation.KindPeer, got.Entities[1].Kind)
	assert.True(t, got.UpdatedAt.Equal(repo.now()))
}

func TestPeerSetRepo_OverwriteKeepsID(t *testing.T) {
	ctx := context.Background()
	repo := newFileRepo(t)

	first := &PeerSet{Name: "deals-2024", Kind: SetDeals, Entities: softwarePeers()}
	require.NoError(t, repo.Save(ctx, first))
	second := &PeerSet{Name: "deals-2024", Kind: SetDeals, Entities: softwarePeers()[:1]}
	require.NoError(t, repo.Save(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	entities, err := repo.Entities(ctx, "deals-2024")
	require.NoError(t, err)
	assert.Len(t, entities, 1)
	assert.Equal(t, valuation.KindDeal, entities[0].Kind)
}

func TestPeerSetRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newFileRepo(t)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPeerSetNotFound)

	_, err = repo.Get(ctx, "   ")
	assert.ErrorIs(t, err, ErrPeerSetNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrPeerSetNotFound)
}

func TestPeerSetRepo_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newFileRepo(t)

	assert.Error(t, repo.Save(ctx, &PeerSet{Name: ""}))
	assert.Error(t, repo.Save(ctx, &PeerSet{Name: "x", Kind: "rumours"}))

	err := repo.Save(ctx, &PeerSet{Name: "x", Entities: []valuation.FinancialEntity{{}}})
	assert.ErrorIs(t, err, valuation.ErrInvalidEntity)
}

func TestPeerSetRepo_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFileRepo(t)

	for _, name := range []string{"zeta", "alpha"} {
		require.NoError(t, repo.Save(ctx, &PeerSet{Name: name, Entities: softwarePeers()}))
	}
	// Stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(repo.fileDir, "notes.txt"), []byte("x"), 0o644))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.NoError(t, repo.Delete(ctx, "alpha"))
	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta"}, names)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"US Software":      "us-software",
		"../../etc/passwd": "etc-passwd",
		"Semis_2025.v2":    "semis_2025.v2",
		" -- ":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeName(in), "input %q", in)
	}
}

func TestInitDB_RequiresURL(t *testing.T) {
	once = sync.Once{}
	err := InitDB(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, GetPool())
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "assessments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &Record{
		Kind:         KindContract,
		Title:        "Acme MSA",
		Subject:      "service",
		OverallScore: 49,
		RiskBand:     "medium",
		Payload:      json.RawMessage(`{"overallScore":49}`),
	}
	require.NoError(t, s.Save(ctx, rec))
	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Acme MSA", got.Title)
	assert.Equal(t, "service", got.Subject)
	assert.Equal(t, 49, got.OverallScore)
	assert.Equal(t, "medium", got.RiskBand)
	assert.JSONEq(t, `{"overallScore":49}`, string(got.Payload))
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Second)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_ListAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, r := range []Record{
		{Kind: KindContract, Subject: "nda", OverallScore: 10, RiskBand: "low"},
		{Kind: KindContract, Subject: "lease", OverallScore: 60, RiskBand: "high"},
		{Kind: KindLitigation, Subject: "civil", OverallScore: 45, RiskBand: "medium"},
		{Kind: KindContract, Subject: "sales", OverallScore: 5, RiskBand: "low"},
	} {
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Save(ctx, &r))
	}

	all, err := s.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "sales", all[0].Subject)

	contracts, err := s.List(ctx, KindContract, 2)
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, "sales", contracts[0].Subject)
	assert.Equal(t, "lease", contracts[1].Subject)

	counts, err := s.BandCounts(ctx, KindContract)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"low": 2, "high": 1}, counts)

	counts, err = s.BandCounts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, counts["medium"])
}

func TestStore_Top(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, r := range []Record{
		{Kind: KindContract, Subject: "lease", OverallScore: 90, RiskBand: "Critical"},
		{Kind: KindLitigation, Subject: "civil", OverallScore: 95, RiskBand: "Critical"},
		{Kind: KindContract, Subject: "nda", OverallScore: 10, RiskBand: "Low"},
		{Kind: KindContract, Subject: "sales", OverallScore: 90, RiskBand: "Critical"},
	} {
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Save(ctx, &r))
	}

	top, err := s.Top(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "civil", top[0].Subject)
	assert.Equal(t, "sales", top[1].Subject)

	contracts, err := s.Top(ctx, KindContract, 10)
	require.NoError(t, err)
	require.Len(t, contracts, 3)
	assert.Equal(t, []string{"sales", "lease", "nda"},
		[]string{contracts[0].Subject, contracts[1].Subject, contracts[2].Subject})
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &Record{Kind: KindLitigation, Subject: "criminal", OverallScore: 30, RiskBand: "medium"}
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err := s.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, rec.ID), ErrNotFound))
}

func TestStore_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(context.Background(), &Record{Kind: KindContract, RiskBand: "low"}))
	recs, err := s.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

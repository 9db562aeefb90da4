package sources

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

type fakeFundamentalsClient struct {
	calls    atomic.Int32
	peRatio  *string
	earnings *string
	err      error
}

func (f *fakeFundamentalsClient) Name() string { return "Google Finance (scraped)" }

func (f *fakeFundamentalsClient) FetchFundamentals(ctx context.Context, symbol string) (*string, *string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.peRatio, f.earnings, nil
}

func strp(s string) *string { return &s }

// -----------------------------------------------------------------------------

func TestGetFundamentals_SuccessIsCached(t *testing.T) {
	client := &fakeFundamentalsClient{peRatio: strp("24.53"), earnings: strp("Jul 2026")}
	src := NewFundamentalsSource(client, sourceConfig(), testLogger(), nil)

	rec, ok := src.GetFundamentals(context.Background(), "TCS.NS")
	require.True(t, ok)
	require.NotNil(t, rec.PERatio)
	assert.Equal(t, 24.53, *rec.PERatio)
	require.NotNil(t, rec.LatestEarnings)
	assert.Equal(t, "Jul 2026", *rec.LatestEarnings)
	assert.Equal(t, "Google Finance (scraped)", rec.Provider)
	assert.False(t, rec.UpdatedAt.IsZero())

	_, ok = src.GetFundamentals(context.Background(), "TCS.NS")
	require.True(t, ok)
	assert.Equal(t, int32(1), client.calls.Load())
}

// -----------------------------------------------------------------------------

func TestGetFundamentals_FailureIsAMissAndUncached(t *testing.T) {
	client := &fakeFundamentalsClient{err: errors.New("scrape failed")}
	src := NewFundamentalsSource(client, sourceConfig(), testLogger(), nil)

	rec, ok := src.GetFundamentals(context.Background(), "TCS.NS")
	assert.False(t, ok)
	assert.Nil(t, rec.PERatio)
	assert.Nil(t, rec.LatestEarnings)

	// No negative caching: the miss is re-evaluated (breaker fast-fails,
	// the client is left alone)
	_, ok = src.GetFundamentals(context.Background(), "TCS.NS")
	assert.False(t, ok)
	assert.Equal(t, int32(1), client.calls.Load())
}

// -----------------------------------------------------------------------------

func TestGetFundamentals_PartialDataStillCounts(t *testing.T) {
	client := &fakeFundamentalsClient{peRatio: strp("24.53")}
	src := NewFundamentalsSource(client, sourceConfig(), testLogger(), nil)

	rec, ok := src.GetFundamentals(context.Background(), "TCS.NS")
	require.True(t, ok)
	require.NotNil(t, rec.PERatio)
	assert.Nil(t, rec.LatestEarnings)
}

// -----------------------------------------------------------------------------

func TestParseRatio(t *testing.T) {
	cases := []struct {
		name string
		in   *string
		want *float64
	}{
		{"nil", nil, nil},
		{"plain", strp("24.53"), floatp(24.53)},
		{"thousands separator", strp("1,204.10"), floatp(1204.10)},
		{"surrounding spaces", strp(" 18.2 "), floatp(18.2)},
		{"dash placeholder", strp("-"), nil},
		{"empty", strp(""), nil},
		{"garbage", strp("N/A"), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseRatio(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func floatp(f float64) *float64 { return &f }

package strategy

import (
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimumOutput(t *testing.T) {
	tests := []struct {
		name      string
		expected  int64
		tolerance uint64
		want      int64
	}{
		{"no tolerance", 1_000_000, 0, 1_000_000},
		{"fifty bps", 1_000_000, 50, 995_000},
		{"truncates", 999, 50, 994},
		{"full tolerance", 1_000_000, 10_000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinimumOutput(math.NewInt(tt.expected), tt.tolerance)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Int64())
		})
	}

	_, err := MinimumOutput(math.NewInt(1), 10_001)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindAuthorization, KindOf(errorsmod.Wrap(ErrUnauthorized, "tend")))
	assert.Equal(t, KindInvalidConfig, KindOf(errInvalidConfigf("bad %d", 1)))
	assert.Equal(t, KindInvalidConfig, KindOf(errorsmod.Wrap(ErrInvalidMigration, "self")))
	assert.Equal(t, KindAssetProtection, KindOf(errorsmod.Wrap(ErrSweepProtected, "mta")))
	assert.Equal(t, KindSlippage, KindOf(errorsmod.Wrap(errorsmod.Wrap(ErrSlippage, "inner"), "outer")))

	assert.Equal(t, "slippage", KindSlippage.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
	assert.Equal(t, "!authorized", ErrUnauthorized.Error())
}

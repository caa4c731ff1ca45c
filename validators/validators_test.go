package validators_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/amb-bridge/config"
	"github.com/omni/amb-bridge/validators"
)

func TestStatic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	owner := common.HexToAddress("0xff")
	v1 := common.HexToAddress("0x01")
	v2 := common.HexToAddress("0x02")
	set := validators.NewStatic(owner, 2, v1, v2)

	ok, err := set.IsValidator(ctx, v1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = set.IsValidator(ctx, owner)
	require.NoError(t, err)
	require.False(t, ok)

	required, err := set.RequiredSignatures(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, required)

	res, err := set.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, owner, res)
}

func TestNewStaticFromConfig(t *testing.T) {
	t.Parallel()

	addrs := []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")}
	for _, test := range []struct {
		Name     string
		Required uint
		Valid    bool
	}{
		{"zero quorum", 0, false},
		{"quorum of one", 1, true},
		{"full quorum", 2, true},
		{"quorum above validators count", 3, false},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			_, err := validators.NewStaticFromConfig(&config.ValidatorsConfig{
				RequiredSignatures: test.Required,
				Addresses:          addrs,
			})
			if test.Valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
			}
		})
	}
}

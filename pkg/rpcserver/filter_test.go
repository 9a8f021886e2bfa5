package rpcserver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferat8/sui/pkg/types"
)

func TestFilterExpressions(t *testing.T) {
	envelope := &types.EventEnvelope{
		Timestamp: 1000,
		Event: types.Event{
			Type:       types.EventNewObject,
			Module:     "coin",
			ObjectType: "0x2::coin::Coin<0x2::sui::SUI>",
			Version:    3,
			Amount:     50,
		},
	}

	for expression, expected := range map[string]bool{
		`Type == "NewObject"`:                  true,
		`Type == "TransferObject"`:             false,
		`Module == "coin" && Amount > 10`:      true,
		`Version >= 4`:                         false,
		`ObjectType contains "sui::SUI"`:       true,
		`Timestamp < 500 || Amount in [1, 50]`: true,
	} {
		program, err := compileFilter(expression)
		require.NoError(t, err, expression)

		matches, err := matchesFilter(nil, program, envelope)
		require.NoError(t, err, expression)
		require.Equal(t, expected, matches, expression)
	}

	_, err := compileFilter(`Amount + 1`)
	require.ErrorIs(t, err, types.ErrDecode)

	_, err = compileFilter(`Unknown == 1`)
	require.ErrorIs(t, err, types.ErrDecode)

	module := "balance"
	matches, err := matchesFilter(&types.EventFilter{Module: module}, nil, envelope)
	require.NoError(t, err)
	require.False(t, matches)
}

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/service"
)

func TestCheckInToken_DeterministicPerOrder(t *testing.T) {
	s := service.NewCheckIn(nil, nil, nil, "boarding-secret")

	assert.Equal(t, s.Token(42), s.Token(42))
	assert.NotEqual(t, s.Token(42), s.Token(43))
	assert.Len(t, s.Token(42), 64)
}

func TestCheckInToken_DependsOnSecret(t *testing.T) {
	a := service.NewCheckIn(nil, nil, nil, "secret-a")
	b := service.NewCheckIn(nil, nil, nil, "secret-b")

	assert.NotEqual(t, a.Token(42), b.Token(42))
}

func TestBoard_RejectsWrongToken(t *testing.T) {
	// The token check happens before any lookup, so no database is
	// needed to exercise the rejection path.
	s := service.NewCheckIn(nil, nil, nil, "boarding-secret")

	_, _, err := s.Board(context.Background(), 42, "not-a-token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestBoard_RejectsTamperedToken(t *testing.T) {
	s := service.NewCheckIn(nil, nil, nil, "boarding-secret")

	token := []byte(s.Token(42))
	require.NotEmpty(t, token)
	if token[0] == '0' {
		token[0] = '1'
	} else {
		token[0] = '0'
	}

	_, _, err := s.Board(context.Background(), 42, string(token))
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestBoard_TokenIsBoundToOrder(t *testing.T) {
	s := service.NewCheckIn(nil, nil, nil, "boarding-secret")

	// A valid token for one order never boards another.
	_, _, err := s.Board(context.Background(), 43, s.Token(42))
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

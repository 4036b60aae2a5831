package phase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSchedule(t *testing.T) {
	now := time.Now()
	_, err := NewSchedule(now, now)
	require.Error(t, err)
	_, err = NewSchedule(now.Add(time.Hour), now)
	require.Error(t, err)
	s, err := NewSchedule(now, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestAt(t *testing.T) {
	close := time.Unix(1000, 0)
	end := time.Unix(2000, 0)
	s, err := NewSchedule(close, end)
	require.NoError(t, err)

	require.Equal(t, DepositOpen, s.At(time.Unix(0, 0)))
	require.Equal(t, DepositOpen, s.At(close))
	require.Equal(t, InterestAccrual, s.At(close.Add(time.Second)))
	require.Equal(t, InterestAccrual, s.At(end))
	require.Equal(t, Settlement, s.At(end.Add(time.Second)))
}

func TestString(t *testing.T) {
	require.Equal(t, "deposit_open", DepositOpen.String())
	require.Equal(t, "interest_accrual", InterestAccrual.String())
	require.Equal(t, "settlement", Settlement.String())
}

package quote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition_PendingDecisions(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusViewed))
	require.True(t, CanTransition(StatusPending, StatusAccepted))
	require.True(t, CanTransition(StatusPending, StatusRejected))
	require.True(t, CanTransition(StatusPending, StatusExpired))
}

func TestCanTransition_ViewedDecisions(t *testing.T) {
	require.True(t, CanTransition(StatusViewed, StatusAccepted))
	require.True(t, CanTransition(StatusViewed, StatusRejected))
	require.True(t, CanTransition(StatusViewed, StatusExpired))
	require.False(t, CanTransition(StatusViewed, StatusPending))
}

func TestCanTransition_AcceptedOnlyDemotes(t *testing.T) {
	require.True(t, CanTransition(StatusAccepted, StatusViewed))
	require.False(t, CanTransition(StatusAccepted, StatusRejected))
	require.False(t, CanTransition(StatusAccepted, StatusExpired))
	require.False(t, CanTransition(StatusAccepted, StatusPending))
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, from := range []Status{StatusRejected, StatusExpired} {
		require.True(t, Terminal(from))
		for _, to := range []Status{StatusPending, StatusViewed, StatusAccepted, StatusRejected, StatusExpired} {
			require.False(t, CanTransition(from, to), "%s -> %s should be blocked", from, to)
		}
	}
}

func TestLive(t *testing.T) {
	require.True(t, Live(StatusPending))
	require.True(t, Live(StatusViewed))
	require.False(t, Live(StatusAccepted))
	require.False(t, Live(StatusRejected))
	require.False(t, Live(StatusExpired))
}

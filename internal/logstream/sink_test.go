package logstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSink_DeliversToAllSubscribers(t *testing.T) {
	s := NewSink()
	defer s.Close()

	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()
	defer cancelB()

	s.Log(LevelInfo, "id-1", "hello")

	require.Equal(t, "hello", (<-a).Message)
	require.Equal(t, "hello", (<-b).Message)
}

func TestSink_LogBuildsFieldPairs(t *testing.T) {
	s := NewSink()
	defer s.Close()
	events, cancel := s.Subscribe()
	defer cancel()

	s.Log(LevelWarn, "id-2", "slow call", "elapsed_ms", "1200", "dangling")

	ev := <-events
	require.Equal(t, LevelWarn, ev.Level)
	require.Equal(t, "id-2", ev.ID)
	require.Equal(t, map[string]string{"elapsed_ms": "1200"}, ev.Fields, "a dangling key is dropped")
	require.False(t, ev.Time.IsZero())
}

func TestSink_EmitNeverBlocksOnSlowSubscriber(t *testing.T) {
	s := NewSink()
	defer s.Close()
	_, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			s.Log(LevelInfo, "", "flood")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber buffer")
	}
}

func TestSink_CancelStopsDelivery(t *testing.T) {
	s := NewSink()
	defer s.Close()

	events, cancel := s.Subscribe()
	cancel()

	_, open := <-events
	require.False(t, open, "cancel must close the channel")

	// Emitting after cancel must not panic or resurrect the subscriber.
	s.Log(LevelInfo, "", "late")
}

func TestSink_CloseIsIdempotentAndFinal(t *testing.T) {
	s := NewSink()
	events, cancel := s.Subscribe()
	defer cancel()

	s.Close()
	s.Close()

	_, open := <-events
	require.False(t, open)

	// Post-close subscriptions get an already-closed channel.
	late, _ := s.Subscribe()
	_, open = <-late
	require.False(t, open)

	s.Log(LevelInfo, "", "ignored")
}

func TestLevel_String(t *testing.T) {
	require.Equal(t, "debug", LevelDebug.String())
	require.Equal(t, "info", LevelInfo.String())
	require.Equal(t, "warn", LevelWarn.String())
	require.Equal(t, "error", LevelError.String())
	require.Equal(t, "unknown", Level(42).String())
}

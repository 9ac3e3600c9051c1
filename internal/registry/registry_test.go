package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

func TestLifecycle_ManualMode(t *testing.T) {
	r := New(context.Background())
	assert.Equal(t, model.StateUnconfigured, r.Get(1, model.ModeManual).State)

	sub := r.Configure(1, model.ModeManual, "BTC/USDT", "")
	assert.Equal(t, model.StatePairSelected, sub.State)

	_, err := r.Activate(1, model.ModeManual)
	assert.ErrorIs(t, err, ErrNotConfigured)

	sub, err = r.SelectTimeframe(1, model.ModeManual, "1h")
	require.NoError(t, err)
	assert.Equal(t, model.StateFullyConfigured, sub.State)
	assert.Equal(t, "1h", sub.Timeframe)

	act, err := r.Activate(1, model.ModeManual)
	require.NoError(t, err)
	assert.False(t, act.Stopped())
	_, err = r.Activate(1, model.ModeManual)
	assert.Error(t, err, "a slot holds at most one activation")

	stopped := r.Stop(1)
	require.Len(t, stopped, 1)
	assert.Equal(t, model.StateStopped, r.Get(1, model.ModeManual).State)
	assert.True(t, act.Stopped())
	assert.Error(t, act.Context().Err())
}

func TestSelectTimeframe_WithoutPair(t *testing.T) {
	r := New(context.Background())
	_, err := r.SelectTimeframe(1, model.ModeLevels, "4h")
	assert.ErrorIs(t, err, ErrNoPair)

	r.Configure(1, model.ModeLevels, "ETH/USDT", "1h")
	r.Stop(1)
	_, err = r.SelectTimeframe(1, model.ModeLevels, "4h")
	assert.ErrorIs(t, err, ErrNoPair, "a stopped slot needs a new pair")
}

func TestReselection_StopsPreviousActivation(t *testing.T) {
	r := New(context.Background())
	r.Configure(2, model.ModeManual, "BTC/USDT", "1h")
	first, err := r.Activate(2, model.ModeManual)
	require.NoError(t, err)
	removed := 0
	first.OnStop(func() { removed++ })

	_, err = r.SelectTimeframe(2, model.ModeManual, "4h")
	require.NoError(t, err)
	assert.True(t, first.Stopped())
	assert.Equal(t, 1, removed)

	second, err := r.Activate(2, model.ModeManual)
	require.NoError(t, err)
	second.OnStop(func() { removed++ })

	r.Configure(2, model.ModeManual, "ETH/USDT", "")
	assert.True(t, second.Stopped())
	assert.Equal(t, 2, removed)
	assert.Equal(t, model.StatePairSelected, r.Get(2, model.ModeManual).State)
}

func TestConfigure_AutoIsImmediatelyConfigured(t *testing.T) {
	r := New(context.Background())
	sub := r.Configure(3, model.ModeAuto, "", "")
	assert.Equal(t, model.StateFullyConfigured, sub.State)
	_, err := r.Activate(3, model.ModeAuto)
	require.NoError(t, err)
	targets := r.Active(model.ModeAuto)
	require.Len(t, targets, 1)
	assert.Equal(t, int64(3), targets[0].Sub.OwnerID)
	assert.Empty(t, r.Active(model.ModeManual))
}

func TestStop_AllModesOfOwnerOnly(t *testing.T) {
	r := New(context.Background())
	r.Configure(1, model.ModeManual, "BTC/USDT", "1h")
	r.Configure(1, model.ModeScalp, "SOL/USDT", "5m")
	r.Configure(2, model.ModeManual, "BTC/USDT", "1h")
	a1, _ := r.Activate(1, model.ModeManual)
	a2, _ := r.Activate(1, model.ModeScalp)
	a3, _ := r.Activate(2, model.ModeManual)

	stopped := r.Stop(1)
	assert.Len(t, stopped, 2)
	assert.True(t, a1.Stopped())
	assert.True(t, a2.Stopped())
	assert.False(t, a3.Stopped())
	assert.Empty(t, r.Stop(1), "stopping twice is a no-op")
	assert.Len(t, r.List(1), 2)
}

func TestDeliver_NoSendAfterStop(t *testing.T) {
	r := New(context.Background())
	r.Configure(5, model.ModeManual, "BTC/USDT", "1h")
	act, err := r.Activate(5, model.ModeManual)
	require.NoError(t, err)

	entered := make(chan struct{})
	var mu sync.Mutex
	sends := 0
	go func() {
		_ = act.Deliver(func(ctx context.Context) error {
			close(entered)
			<-ctx.Done() // a retrying notifier waits on the context
			mu.Lock()
			sends++
			mu.Unlock()
			return ctx.Err()
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		r.Stop(5)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}

	mu.Lock()
	assert.Equal(t, 1, sends, "in-flight send finished before stop returned")
	mu.Unlock()

	err = act.Deliver(func(context.Context) error {
		t.Error("send after stop")
		return nil
	})
	assert.True(t, errors.Is(err, ErrStopped))
}

func TestOnStop_AfterStopRunsImmediately(t *testing.T) {
	r := New(context.Background())
	r.Configure(6, model.ModeScalp, "XRP/USDT", "5m")
	act, err := r.Activate(6, model.ModeScalp)
	require.NoError(t, err)
	r.Stop(6)
	ran := false
	act.OnStop(func() { ran = true })
	assert.True(t, ran)
}

func TestStopAll(t *testing.T) {
	r := New(context.Background())
	r.Configure(1, model.ModeAuto, "", "")
	r.Configure(2, model.ModeAuto, "", "")
	a1, _ := r.Activate(1, model.ModeAuto)
	a2, _ := r.Activate(2, model.ModeAuto)
	r.StopAll()
	assert.True(t, a1.Stopped())
	assert.True(t, a2.Stopped())
	assert.Empty(t, r.Active(model.ModeAuto))
}

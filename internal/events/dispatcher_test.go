package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/events"
)

func TestDispatcherDeliversByType(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	var got []events.EventType
	d.Subscribe(events.EventLoginFailed, func(_ context.Context, e events.Event) error {
		got = append(got, e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventLoginSucceeded}))
	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventLoginFailed}))
	require.Equal(t, []events.EventType{events.EventLoginFailed}, got)
}

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(events.EventAccountBlocked, func(context.Context, events.Event) error {
		calls++
		return boom
	})
	d.Subscribe(events.EventAccountBlocked, func(context.Context, events.Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), events.Event{Type: events.EventAccountBlocked})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestDispatcherJoinsEveryFailureInOrder(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	first := errors.New("audit sink down")
	second := errors.New("metrics sink down")
	var order []string
	d.Subscribe(events.EventLoginFailed, func(context.Context, events.Event) error {
		order = append(order, "first")
		return first
	})
	d.Subscribe(events.EventLoginFailed, func(context.Context, events.Event) error {
		order = append(order, "healthy")
		return nil
	})
	d.Subscribe(events.EventLoginFailed, func(context.Context, events.Event) error {
		order = append(order, "second")
		return second
	})

	err := d.Publish(context.Background(), events.Event{Type: events.EventLoginFailed})
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.ErrorContains(t, err, "login_failed handler")
	require.Equal(t, []string{"first", "healthy", "second"}, order)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(events.EventUserSignedUp, func(context.Context, events.Event) error {
		panic("nil map write")
	})
	d.Subscribe(events.EventUserSignedUp, func(context.Context, events.Event) error {
		delivered = true
		return nil
	})

	var err error
	require.NotPanics(t, func() {
		err = d.Publish(context.Background(), events.Event{Type: events.EventUserSignedUp})
	})
	require.ErrorIs(t, err, events.ErrHandlerPanic)
	require.ErrorContains(t, err, "nil map write")
	require.True(t, delivered)
}

func TestDispatcherSubscribeDuringPublish(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	late := 0
	d.Subscribe(events.EventTokenRefreshed, func(context.Context, events.Event) error {
		d.Subscribe(events.EventTokenRefreshed, func(context.Context, events.Event) error {
			late++
			return nil
		})
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventTokenRefreshed}))
	require.Zero(t, late)
	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventTokenRefreshed}))
	require.Equal(t, 1, late)
}

package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	sent     []EmailJob
}

func (s *flakySender) Send(_ context.Context, to []string, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, EmailJob{To: to, Subject: subject, Body: body})
	return nil
}

func (s *flakySender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDeliverFirstTry(t *testing.T) {
	sender := &flakySender{}
	d := NewDispatcher(sender, nil, time.Millisecond, nil)

	job := EmailJob{To: []string{"a@b.com"}, Subject: "s", Body: "b"}
	require.NoError(t, d.Deliver(context.Background(), job))
	require.Equal(t, 1, sender.sentCount())
	assert.Equal(t, job, sender.sent[0])
}

func TestDeliverRetriesSendFailures(t *testing.T) {
	sender := &flakySender{failures: 3}
	d := NewDispatcher(sender, nil, time.Millisecond, nil)

	require.NoError(t, d.Deliver(context.Background(), EmailJob{To: []string{"a@b.com"}}))
	assert.Equal(t, 1, sender.sentCount())
}

func TestDeliverWaitsForNetwork(t *testing.T) {
	sender := &flakySender{}
	var mu sync.Mutex
	probes := 0
	probe := Prober(func() bool {
		mu.Lock()
		defer mu.Unlock()
		probes++
		return probes > 2
	})
	d := NewDispatcher(sender, probe, time.Millisecond, nil)

	require.NoError(t, d.Deliver(context.Background(), EmailJob{To: []string{"a@b.com"}}))
	assert.Equal(t, 1, sender.sentCount())
	mu.Lock()
	assert.Equal(t, 3, probes)
	mu.Unlock()
}

func TestDeliverStopsOnCancel(t *testing.T) {
	sender := &flakySender{failures: 1 << 30}
	d := NewDispatcher(sender, nil, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Deliver(ctx, EmailJob{To: []string{"a@b.com"}}) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Deliver did not stop after cancel")
	}
	assert.Zero(t, sender.sentCount())
}

func TestNetworkProberUnreachable(t *testing.T) {
	// Reserved TEST-NET-1 address; nothing should be listening.
	probe := NetworkProber("192.0.2.1:9", 50*time.Millisecond)
	assert.False(t, probe())
}

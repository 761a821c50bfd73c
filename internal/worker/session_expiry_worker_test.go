package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingExpirer struct {
	calls int32
	err   error
	live  map[string]bool
}

func (e *countingExpirer) Tracks(sessionID string) bool {
	return e.live[sessionID]
}

type fakePruner struct {
	sessions []string
	pruned   []string
}

func (p *fakePruner) Prune(live func(string) bool) int {
	kept := p.sessions[:0]
	for _, id := range p.sessions {
		if live(id) {
			kept = append(kept, id)
			continue
		}
		p.pruned = append(p.pruned, id)
	}
	p.sessions = kept
	return len(p.pruned)
}

func (e *countingExpirer) ExpireDue(context.Context) (int, error) {
	atomic.AddInt32(&e.calls, 1)
	return 1, e.err
}

func TestSessionExpiryWorkerSweepsUntilCancelled(t *testing.T) {
	exp := &countingExpirer{}
	w := NewSessionExpiryWorker(exp, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&exp.calls) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSessionExpiryWorkerSurvivesErrors(t *testing.T) {
	exp := &countingExpirer{err: errors.New("redis down")}
	w := NewSessionExpiryWorker(exp, 0)
	assert.Equal(t, time.Minute, w.interval)

	w.run(context.Background())
	w.run(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&exp.calls))
}

func TestSessionExpiryWorkerPrunesEndedSessions(t *testing.T) {
	exp := &countingExpirer{live: map[string]bool{"alive": true}}
	pruner := &fakePruner{sessions: []string{"alive", "gone", "missed"}}
	w := NewSessionExpiryWorker(exp, time.Minute, pruner)

	w.run(context.Background())
	assert.Equal(t, []string{"alive"}, pruner.sessions)
	assert.ElementsMatch(t, []string{"gone", "missed"}, pruner.pruned)
}

func TestSessionExpiryWorkerPrunesAfterFailedSweep(t *testing.T) {
	exp := &countingExpirer{err: errors.New("redis down")}
	pruner := &fakePruner{sessions: []string{"gone"}}
	w := NewSessionExpiryWorker(exp, time.Minute, pruner)

	w.run(context.Background())
	assert.Equal(t, []string{"gone"}, pruner.pruned)
}

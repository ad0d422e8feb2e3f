package runlock

import (
	"sync"
	"testing"
)

func TestLock_SingleSlot(t *testing.T) {
	var l Lock

	if !l.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second acquire to fail while held")
	}

	busy, since := l.Busy()
	if !busy || since.IsZero() {
		t.Errorf("expected busy with timestamp, got busy=%v since=%v", busy, since)
	}

	l.Release()
	if busy, _ := l.Busy(); busy {
		t.Error("expected lock free after release")
	}
	if !l.TryAcquire() {
		t.Error("expected acquire to succeed after release")
	}
}

func TestLock_ConcurrentAcquire(t *testing.T) {
	var l Lock
	var wg sync.WaitGroup
	won := make(chan struct{}, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire() {
				won <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(won)

	count := 0
	for range won {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one winner, got %d", count)
	}
}

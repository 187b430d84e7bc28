package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomLockerSerialisesSameRoom(t *testing.T) {
	locker := NewRoomLocker()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locker.Lock("A101")
			defer release()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
	assert.Equal(t, 0, locker.size())
}

func TestRoomLockerDistinctRoomsDoNotBlock(t *testing.T) {
	locker := NewRoomLocker()
	releaseA := locker.Lock("A101")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := locker.Lock("B202")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another room blocked")
	}
}

func TestRoomLockerMultiRoomDeduplicates(t *testing.T) {
	locker := NewRoomLocker()
	release := locker.Lock("B202", "A101", "B202")
	assert.Equal(t, 2, locker.size())
	release()
	assert.Equal(t, 0, locker.size())
}

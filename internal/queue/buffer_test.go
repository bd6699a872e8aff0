package queue

import (
	"sync"
	"testing"
	"time"
)

func TestBuffer_BasicSendReceive(t *testing.T) {
	buf := NewBuffer[int](10)

	for i := 0; i < 5; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	for i := 0; i < 5; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}

	if buf.Len() != 0 {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
}

func TestBuffer_GrowsUnderLoad(t *testing.T) {
	buf := NewBuffer[int](4)

	for i := 0; i < 100; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	stats := buf.Stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.ResizeCount < 3 {
		t.Errorf("ResizeCount = %d, expected at least 3 resizes", stats.ResizeCount)
	}

	// Order must survive the grows.
	for i := 0; i < 100; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestBuffer_BlockingReceive(t *testing.T) {
	buf := NewBuffer[int](10)
	received := make(chan int, 1)

	go func() {
		val, ok := buf.Receive()
		if ok {
			received <- val
		}
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Send(42)

	select {
	case val := <-received:
		if val != 42 {
			t.Errorf("received %d, want 42", val)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not wake up")
	}
}

func TestBuffer_CloseDrains(t *testing.T) {
	buf := NewBuffer[int](10)
	buf.Send(1)
	buf.Send(2)
	buf.Close()

	if buf.Send(3) {
		t.Error("Send() after Close() returned true")
	}

	if val, ok := buf.Receive(); !ok || val != 1 {
		t.Errorf("Receive() = %d, %v, want 1, true", val, ok)
	}
	if val, ok := buf.Receive(); !ok || val != 2 {
		t.Errorf("Receive() = %d, %v, want 2, true", val, ok)
	}
	if _, ok := buf.Receive(); ok {
		t.Error("Receive() on drained closed buffer returned true")
	}
}

func TestBuffer_ConcurrentProducers(t *testing.T) {
	buf := NewBuffer[int](8)
	const producers = 4
	const perProducer = 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				buf.Send(i)
			}
		}()
	}
	wg.Wait()

	if got := buf.Len(); got != producers*perProducer {
		t.Errorf("Len() = %d, want %d", got, producers*perProducer)
	}
}

package snowflake

import (
	"sync"
	"testing"
)

func TestGenerateIsStrictlyIncreasing(t *testing.T) {
	node := NewNode(1)

	var last ID
	for i := 0; i < 10000; i++ {
		id := node.Generate()
		if id <= last {
			t.Fatalf("ID %d is not greater than previous %d", id, last)
		}
		last = id
	}
}

func TestGenerateIsUniqueAcrossGoroutines(t *testing.T) {
	node := NewNode(1)

	const workers = 8
	const perWorker = 2000

	var mu sync.Mutex
	seen := make(map[ID]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]ID, perWorker)
			for i := range ids {
				ids[i] = node.Generate()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					t.Errorf("Duplicate ID %d", id)
				}
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}

func TestNewNodeClampsInvalidNodeID(t *testing.T) {
	if node := NewNode(-1); node.nodeID != 1 {
		t.Errorf("Expected node id 1, got %d", node.nodeID)
	}
	if node := NewNode(maxNodeID + 1); node.nodeID != 1 {
		t.Errorf("Expected node id 1, got %d", node.nodeID)
	}
	if node := NewNode(42); node.nodeID != 42 {
		t.Errorf("Expected node id 42, got %d", node.nodeID)
	}
}

func TestStringRoundTrip(t *testing.T) {
	id := NewNode(1).Generate()
	if id.String() == "" {
		t.Fatal("String should not be empty")
	}
	if id.Int64() <= 0 {
		t.Fatalf("Expected positive id, got %d", id.Int64())
	}
}

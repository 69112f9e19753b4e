package snowflake

import (
	"strconv"
	"sync"
	"time"
)

const (
	// epoch is 2025-01-01 00:00:00 UTC.
	epoch int64 = 1735689600000

	nodeBits     = 10
	sequenceBits = 12

	maxNodeID   = -1 ^ (-1 << nodeBits)
	maxSequence = -1 ^ (-1 << sequenceBits)

	nodeShift      = sequenceBits
	timestampShift = nodeBits + sequenceBits
)

// ID is a time-sortable 64-bit identifier. IDs generated by the same node
// are strictly increasing, so insertion order equals id order.
type ID int64

func (id ID) Int64() int64 {
	return int64(id)
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Node generates snowflake IDs for a single process.
type Node struct {
	mu       sync.Mutex
	nodeID   int64
	sequence int64
	lastTime int64
}

func NewNode(nodeID int64) *Node {
	if nodeID < 0 || nodeID > maxNodeID {
		nodeID = 1
	}
	return &Node{nodeID: nodeID}
}

// Generate returns the next ID.
func (n *Node) Generate() ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == n.lastTime {
		n.sequence = (n.sequence + 1) & maxSequence
		if n.sequence == 0 {
			// Sequence exhausted for this millisecond.
			for now <= n.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		n.sequence = 0
	}

	n.lastTime = now

	return ID(((now - epoch) << timestampShift) |
		(n.nodeID << nodeShift) |
		n.sequence)
}

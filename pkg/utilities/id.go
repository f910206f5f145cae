package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewRequestID returns a KSUID used to correlate an outbound API call in logs.
func NewRequestID() string {
	return ksuid.New().String()
}

// NewSessionID returns a snowflake id for a local login session. The node is
// taken from TODO_NODE_ID (default 1). If the node cannot be built a KSUID is
// returned instead so the caller always gets a unique id.
func NewSessionID() string {
	nodeOnce.Do(func() {
		id := int64(1)
		if v := os.Getenv("TODO_NODE_ID"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				id = n
			}
		}
		node, _ = snowflake.NewNode(id)
	})
	if node == nil {
		return NewRequestID()
	}
	return node.Generate().String()
}

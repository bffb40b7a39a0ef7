package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new time-ordered int64 ID. Every inbound event gets one so its
// log lines can be correlated. Returns 0 if Init has not been called.
func New() int64 {
	if node == nil {
		return 0
	}
	return node.Generate().Int64()
}

package robotfile

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the resource parser Graft node.
const NodeID graft.ID = "adapter.robotfile"

func init() {
	graft.Register(graft.Node[*Parser]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Parser, error) {
			return NewParser(), nil
		},
	})
}

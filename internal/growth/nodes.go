package growth

// NodeID identifies a growth node as group*100 + index. Groups are small and
// fixed; each maps to one word of the unlock bit-vector.
type NodeID int32

// Known node ids, grouped by function.
const (
	// Group 1: economy.
	NodeStartCoinsI      NodeID = 101
	NodeStartCoinsII     NodeID = 102
	NodeHawkerDiscountI  NodeID = 103
	NodeHawkerDiscountII NodeID = 104
	NodeHawkerGoodsPlus  NodeID = 105

	// Group 2: potentials.
	NodePotentialMaxI  NodeID = 201 // +1 max level
	NodePotentialMaxII NodeID = 202 // +2 max level, supersedes tier I
	NodeSelectorReroll NodeID = 203

	// Group 3: strengthen machine.
	NodeStrengthenUnlock   NodeID = 301
	NodeStrengthenDiscount NodeID = 302
	NodeFreeStrengthen     NodeID = 303

	// Group 4: run access.
	NodeSweepUnlock NodeID = 401
)

// NumGroups bounds the bit-vector. Node indexes must stay below 64.
const NumGroups = 8

// Group returns the node's group number.
func (n NodeID) Group() int32 { return int32(n) / 100 }

// Index returns the node's bit position within its group.
func (n NodeID) Index() int32 { return int32(n) % 100 }

func (n NodeID) valid() bool {
	g, i := n.Group(), n.Index()
	return g >= 1 && g < NumGroups && i < 64
}

// Set is a fixed-size bit-vector of unlocked nodes, one word per group.
type Set struct {
	words [NumGroups]uint64
}

// Unlock marks a node as unlocked. Unknown groups are ignored.
func (s *Set) Unlock(id NodeID) {
	if !id.valid() {
		return
	}
	s.words[id.Group()] |= 1 << uint(id.Index())
}

// IsUnlocked reports whether the node is unlocked.
func (s Set) IsUnlocked(id NodeID) bool {
	if !id.valid() {
		return false
	}
	return s.words[id.Group()]&(1<<uint(id.Index())) != 0
}

// View is the read-only capability handed to modifier computation.
type View interface {
	IsUnlocked(id NodeID) bool
}

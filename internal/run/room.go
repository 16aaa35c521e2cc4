package run

import "github.com/qinfyy/Nebula-sub000/internal/content"

// RoomKind is the room subtype chosen from the floor's room-type code.
type RoomKind int32

const (
	RoomBattle RoomKind = iota + 1
	RoomEvent
	RoomHawker
	RoomBase
)

func (k RoomKind) String() string {
	switch k {
	case RoomBattle:
		return "battle"
	case RoomEvent:
		return "event"
	case RoomHawker:
		return "hawker"
	case RoomBase:
		return "base"
	}
	return "unknown"
}

func roomKindFor(code content.RoomCode) RoomKind {
	switch {
	case code.Battle():
		return RoomBattle
	case code == content.RoomCodeEvent:
		return RoomEvent
	case code == content.RoomCodeHawker:
		return RoomHawker
	default:
		return RoomBase
	}
}

// Room is the ordered case collection for one floor. Case ids are monotonic
// per room; consumed cases stay in the list so ids never get reused.
type Room struct {
	Kind       RoomKind
	StageNum   int32
	StageFloor int32
	Floor      content.FloorDef
	Final      bool // last floor of the tower

	HasDoor bool // set exactly once, when the exit case is registered

	cleared  bool // battle rooms: floor battle reported won
	finished bool // exit and bonus cases emitted

	cases  []*Case
	nextID int32
}

func newRoom(kind RoomKind, stageNum, stageFloor int32, floor content.FloorDef, final bool) *Room {
	return &Room{
		Kind:       kind,
		StageNum:   stageNum,
		StageFloor: stageFloor,
		Floor:      floor,
		Final:      final,
	}
}

// addCase registers a case and assigns its room-scoped id.
func (r *Room) addCase(c *Case) *Case {
	r.nextID++
	c.ID = r.nextID
	c.State = StateActive
	r.cases = append(r.cases, c)
	if c.Kind == KindExit {
		r.HasDoor = true
	}
	return c
}

// findCase resolves an id to an active or persistent case.
func (r *Room) findCase(id int32) (*Case, bool) {
	for _, c := range r.cases {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// activeSelector reports whether an unresolved potential selector blocks the
// room's progression.
func (r *Room) activeSelector() bool {
	for _, c := range r.cases {
		if c.Kind == KindPotentialSelector && c.State == StateActive {
			return true
		}
	}
	return false
}

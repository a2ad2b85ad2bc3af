package fiber

// Lanes is a bitset of update priority classes. Lower bits are higher
// priority. Requests merge into a pending set with bitwise OR; a scheduling
// decision consumes the highest bit and clears the set.
type Lanes uint8

const (
	LaneSync Lanes = 1 << iota // interactive-urgent
	LaneInput                  // interactive
	LaneDefault
	LaneTransition // deferrable
	LaneIdle

	LaneNone Lanes = 0
)

// syncLanes run to completion on the calling turn with no yielding.
const syncLanes = LaneSync | LaneInput

func highestLane(l Lanes) Lanes {
	return l & (-l)
}

func (l Lanes) String() string {
	switch l {
	case LaneSync:
		return "sync"
	case LaneInput:
		return "input"
	case LaneDefault:
		return "default"
	case LaneTransition:
		return "transition"
	case LaneIdle:
		return "idle"
	case LaneNone:
		return "none"
	default:
		return "mixed"
	}
}

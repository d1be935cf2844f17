package game

// EventKind names a match state change.
type EventKind int

const (
	EventShotFired EventKind = iota
	EventDomeMoved
	EventItemChanged
	EventImpact
	EventTurnChanged
	EventGameOver
)

func (k EventKind) String() string {
	switch k {
	case EventShotFired:
		return "shotFired"
	case EventDomeMoved:
		return "domeMoved"
	case EventItemChanged:
		return "itemChanged"
	case EventImpact:
		return "impact"
	case EventTurnChanged:
		return "turnChanged"
	case EventGameOver:
		return "gameOver"
	default:
		return "unknown"
	}
}

// Event is delivered to Match observers after the change it describes.
// Seat is the acting seat, the new current seat for TurnChanged, and the
// winner (0 on a draw) for GameOver.
type Event struct {
	Kind    EventKind
	Seat    int
	Shot    *Shot    // ShotFired
	ItemID  string   // ItemChanged
	Action  string   // ItemChanged
	Outcome *Outcome // Impact
}

package game

// ActiveItems are the two store slots. An empty string is an empty slot.
type ActiveItems struct {
	Offensive string `json:"offensive"`
	Defensive string `json:"defensive"`
}

// Slot returns the item id held in category c.
func (a ActiveItems) Slot(c ItemCategory) string {
	if c == Offensive {
		return a.Offensive
	}
	return a.Defensive
}

func (a *ActiveItems) set(c ItemCategory, id string) {
	if c == Offensive {
		a.Offensive = id
		return
	}
	a.Defensive = id
}

// Dome is one player's artillery unit and its battle state.
type Dome struct {
	PlayerID string
	Name     string
	Color    string
	DomeType string
	Seat     int // 1-based

	X, Y   float64
	Radius float64

	Health    int
	MaxHealth int

	Movement    float64 // remaining this turn
	MaxMovement float64

	Gold   int
	Income int

	Items     ActiveItems
	HasShield bool
}

// NewDome places a dome at full health with a full movement budget and an
// empty purse.
func NewDome(seat int, x, y float64, color string, health int, maxMovement float64, income int) *Dome {
	return &Dome{
		Seat:        seat,
		X:           x,
		Y:           y,
		Color:       color,
		Health:      health,
		MaxHealth:   health,
		Movement:    maxMovement,
		MaxMovement: maxMovement,
		Income:      income,
	}
}

// TakeDamage lowers health, never below zero. It does not announce death;
// callers check Alive.
func (d *Dome) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	d.Health = max(0, d.Health-amount)
}

// Heal raises health, capped at MaxHealth.
func (d *Dome) Heal(amount int) {
	if amount <= 0 {
		return
	}
	d.Health = min(d.MaxHealth, d.Health+amount)
}

func (d *Dome) Alive() bool { return d.Health > 0 }

func (d *Dome) CanMove() bool { return d.Movement > 0 }

// ResetMovementPoints restores the per-turn budget.
func (d *Dome) ResetMovementPoints() { d.Movement = d.MaxMovement }

// AwardGold pays the per-turn income.
func (d *Dome) AwardGold() { d.Gold += d.Income }

// ClearItems empties both slots. A raised shield stays up until it absorbs a
// hit.
func (d *Dome) ClearItems() { d.Items = ActiveItems{} }

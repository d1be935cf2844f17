/*
Package game
File: economy.go
Description:

	Handles the store side of a turn.
	This includes:
	1. Purchasing catalog items into the offensive/defensive slots.
	2. Applying the immediate effects (shield, repair, targeting computer).
	3. Refunding an active item by re-clicking it (repair excepted).
*/
package game

// Item actions reported on ItemChanged events.
const (
	ActionPurchased = "purchased"
	ActionRefunded  = "refunded"
)

// Toggle is the store's re-click behaviour: an active item is refunded,
// anything else is purchased. It returns the action taken.
func (m *Match) Toggle(seat int, itemID string) (string, error) {
	d, err := m.actor(seat)
	if err != nil {
		return "", err
	}
	it := m.rules.Item(itemID)
	if it == nil {
		return "", ErrUnknownItem
	}
	if d.Items.Slot(it.Category) == itemID {
		return ActionRefunded, m.Refund(seat, itemID)
	}
	return ActionPurchased, m.Purchase(seat, itemID)
}

// Purchase buys itemID for the current seat and applies any immediate effect.
func (m *Match) Purchase(seat int, itemID string) error {
	d, err := m.actor(seat)
	if err != nil {
		return err
	}
	it := m.rules.Item(itemID)
	if it == nil {
		return ErrUnknownItem
	}

	// 1. Slot and funds
	if d.Items.Slot(it.Category) != "" {
		return ErrSlotOccupied
	}
	if it.Effect == EffectShield && d.HasShield {
		return ErrAlreadyShielded
	}
	if d.Gold < it.Cost {
		return ErrInsufficientGold
	}

	// 2. Pay and occupy the slot
	d.Gold -= it.Cost
	d.Items.set(it.Category, it.ID)

	// 3. Immediate effects; offensive items wait for Fire
	switch it.Effect {
	case EffectShield:
		d.HasShield = true
	case EffectRepair:
		d.Heal(m.rules.Combat.RepairAmount)
	case EffectTargeting:
		m.windBeforeTargeting = m.wind
		if w, ok := m.lastWinds[seat]; ok {
			m.wind = w
		}
	}

	m.emit(Event{Kind: EventItemChanged, Seat: seat, ItemID: it.ID, Action: ActionPurchased})
	return nil
}

// Refund returns an active item's cost and clears its slot, undoing the
// item's effect. Repair cannot be refunded once the heal has landed.
func (m *Match) Refund(seat int, itemID string) error {
	d, err := m.actor(seat)
	if err != nil {
		return err
	}
	it := m.rules.Item(itemID)
	if it == nil {
		return ErrUnknownItem
	}
	if d.Items.Slot(it.Category) != itemID {
		return ErrNotActive
	}
	if it.Effect == EffectRepair {
		return ErrNotRefundable
	}

	d.Gold += it.Cost
	d.Items.set(it.Category, "")

	switch it.Effect {
	case EffectShield:
		d.HasShield = false
	case EffectTargeting:
		m.wind = m.windBeforeTargeting
	}

	m.emit(Event{Kind: EventItemChanged, Seat: seat, ItemID: it.ID, Action: ActionRefunded})
	return nil
}

package availability

// IsSelectable reports whether a booking for guestCount may be submitted
// against slot. A nil slot is an unknown date and never selectable.
func IsSelectable(slot *Slot, guestCount int) bool {
	if slot == nil {
		return false
	}
	if slot.Status != StatusAvailable && slot.Status != StatusLimited {
		return false
	}
	if slot.HasTimeSlots() && !slot.hasOpenTimeSlot() {
		return false
	}
	if slot.MaxGuests != nil && guestCount > *slot.MaxGuests {
		return false
	}
	return true
}

func (s *Slot) hasOpenTimeSlot() bool {
	for _, ts := range s.TimeSlots {
		if ts.Status == StatusAvailable {
			return true
		}
	}
	return false
}

// SelectTimeSlot returns the time slot with the given id if it can be booked
func (s *Slot) SelectTimeSlot(id string) (*TimeSlot, error) {
	for i := range s.TimeSlots {
		if s.TimeSlots[i].ID != id {
			continue
		}
		if s.TimeSlots[i].Status != StatusAvailable {
			return nil, ErrTimeSlotUnavailable
		}
		return &s.TimeSlots[i], nil
	}
	return nil, ErrTimeSlotNotFound
}

// EffectivePrice is the price that replaces the listing's base price, if any.
// A time slot price wins over the date override.
func (s *Slot) EffectivePrice(timeSlotID string) *int64 {
	if timeSlotID != "" {
		for _, ts := range s.TimeSlots {
			if ts.ID == timeSlotID && ts.Price != nil {
				p := *ts.Price
				return &p
			}
		}
	}
	if s.PriceOverride != nil {
		p := *s.PriceOverride
		return &p
	}
	return nil
}

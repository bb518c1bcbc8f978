package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func i64Ptr(v int64) *int64 { return &v }

func TestIsSelectable(t *testing.T) {
	cases := []struct {
		name   string
		slot   *Slot
		guests int
		want   bool
	}{
		{"unknown date", nil, 10, false},
		{"available whole day", &Slot{Status: StatusAvailable}, 500, true},
		{"limited whole day", &Slot{Status: StatusLimited}, 50, true},
		{"booked", &Slot{Status: StatusBooked}, 50, false},
		{"blocked", &Slot{Status: StatusBlocked}, 50, false},
		{"over cap", &Slot{Status: StatusAvailable, MaxGuests: intPtr(200)}, 201, false},
		{"at cap", &Slot{Status: StatusAvailable, MaxGuests: intPtr(200)}, 200, true},
		{"all time slots booked", &Slot{Status: StatusLimited, TimeSlots: []TimeSlot{
			{ID: "am", Status: StatusBooked}, {ID: "pm", Status: StatusBooked},
		}}, 10, false},
		{"one time slot open", &Slot{Status: StatusLimited, TimeSlots: []TimeSlot{
			{ID: "am", Status: StatusBooked}, {ID: "pm", Status: StatusAvailable},
		}}, 10, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSelectable(tc.slot, tc.guests))
		})
	}
}

func TestSelectTimeSlot(t *testing.T) {
	slot := &Slot{Status: StatusLimited, TimeSlots: []TimeSlot{
		{ID: "am", Time: "10:00", Status: StatusBooked},
		{ID: "pm", Time: "18:00", Status: StatusAvailable},
	}}

	ts, err := slot.SelectTimeSlot("pm")
	require.NoError(t, err)
	assert.Equal(t, "18:00", ts.Time)

	_, err = slot.SelectTimeSlot("am")
	assert.ErrorIs(t, err, ErrTimeSlotUnavailable)

	_, err = slot.SelectTimeSlot("night")
	assert.ErrorIs(t, err, ErrTimeSlotNotFound)
}

func TestEffectivePrice(t *testing.T) {
	slot := &Slot{
		PriceOverride: i64Ptr(200000),
		TimeSlots: []TimeSlot{
			{ID: "am", Status: StatusAvailable, Price: i64Ptr(120000)},
			{ID: "pm", Status: StatusAvailable},
		},
	}

	assert.Equal(t, int64(120000), *slot.EffectivePrice("am"))
	assert.Equal(t, int64(200000), *slot.EffectivePrice("pm"))
	assert.Equal(t, int64(200000), *slot.EffectivePrice(""))
	assert.Nil(t, (&Slot{}).EffectivePrice(""))
}

func TestParseStatus_UnknownIsBlocked(t *testing.T) {
	assert.Equal(t, StatusAvailable, ParseStatus("available"))
	assert.Equal(t, StatusLimited, ParseStatus(" Limited "))
	assert.Equal(t, StatusBlocked, ParseStatus("tentative"))
}

package availability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ErrSourceResponse = errors.New("availability source returned an invalid response")

// HTTPSource reads availability from an external scheduling service:
// GET {baseURL}/{entityID} returning either a JSON array of slots or {"data": [...]}.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPSource) ListAvailability(ctx context.Context, entityID string) ([]Slot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/"+url.PathEscape(entityID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build availability request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read availability response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d", ErrSourceResponse, resp.StatusCode)
	}

	return parseSlots(entityID, body)
}

func parseSlots(entityID string, body []byte) ([]Slot, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrSourceResponse
	}

	list := gjson.ParseBytes(body)
	if data := list.Get("data"); data.Exists() {
		list = data
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of slots", ErrSourceResponse)
	}

	var slots []Slot
	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		date, err := ParseDate(item.Get("date").String())
		if err != nil {
			parseErr = fmt.Errorf("%w: bad date %q", ErrSourceResponse, item.Get("date").String())
			return false
		}

		slot := Slot{
			EntityID:      entityID,
			Date:          date,
			Status:        ParseStatus(item.Get("status").String()),
			PriceOverride: optionalInt64(item.Get("priceOverride")),
		}
		if mg := item.Get("maxGuests"); mg.Exists() && mg.Type == gjson.Number {
			v := int(mg.Int())
			slot.MaxGuests = &v
		}

		item.Get("timeSlots").ForEach(func(_, ts gjson.Result) bool {
			status := ParseStatus(ts.Get("status").String())
			if status != StatusAvailable {
				status = StatusBooked
			}
			slot.TimeSlots = append(slot.TimeSlots, TimeSlot{
				ID:     ts.Get("id").String(),
				Time:   ts.Get("time").String(),
				Status: status,
				Price:  optionalInt64(ts.Get("price")),
			})
			return true
		})

		slots = append(slots, slot)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return slots, nil
}

func optionalInt64(r gjson.Result) *int64 {
	if !r.Exists() || r.Type != gjson.Number {
		return nil
	}
	v := r.Int()
	return &v
}

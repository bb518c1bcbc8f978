package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wedbook/internal/bookings"
	"wedbook/internal/escrow"
	"wedbook/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, val []byte) PipelineEvent {
	t.Helper()
	var event PipelineEvent
	require.NoError(t, json.Unmarshal(val, &event))
	return event
}

func TestPartitionKey_Fallbacks(t *testing.T) {
	event := NewEvent(EventEscrowFunded)
	assert.Equal(t, event.ID.String(), event.PartitionKey())

	event.EscrowID = "escrow-1"
	assert.Equal(t, "escrow-1", event.PartitionKey())

	event.DraftID = "draft-1"
	assert.Equal(t, "draft-1", event.PartitionKey())

	event.BookingID = "booking-1"
	assert.Equal(t, "booking-1", event.PartitionKey())
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	publisher := NewKafkaPublisherWithProducer(producer, "wedbook.pipeline", logger.GetDefault())

	event := NewEvent(EventBookingConfirmed)
	event.BookingID = "booking-1"

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		got := decodeEvent(t, val)
		if got.Type != EventBookingConfirmed || got.BookingID != "booking-1" {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	publisher := NewKafkaPublisherWithProducer(producer, "wedbook.pipeline", logger.GetDefault())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := publisher.Publish(context.Background(), NewEvent(EventEscrowReleased))

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestService_BookingConfirmed(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	svc := NewService(NewKafkaPublisherWithProducer(producer, "wedbook.pipeline", logger.GetDefault()), logger.GetDefault())

	escrowID := uuid.New()
	booking := &bookings.Booking{
		ID:            uuid.New(),
		ListingID:     uuid.New(),
		DraftID:       "draft-1",
		CustomerEmail: "asha@example.com",
		CustomerName:  "Asha Rao",
		TotalAmount:   225000,
		AmountPaid:    67500,
		Currency:      "INR",
		EscrowID:      &escrowID,
	}

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		got := decodeEvent(t, val)
		if got.BookingID != booking.ID.String() || got.EscrowID != escrowID.String() || got.RecipientEmail != "asha@example.com" {
			return errors.New("unexpected booking event")
		}
		return nil
	})

	svc.BookingConfirmed(context.Background(), booking)
	require.NoError(t, producer.Close())
}

func TestService_EscrowChanged(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	svc := NewService(NewKafkaPublisherWithProducer(producer, "wedbook.pipeline", logger.GetDefault()), logger.GetDefault())

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		got := decodeEvent(t, val)
		if got.Type != EventEscrowReleased || got.Data["payeeAmount"] != float64(60750) {
			return errors.New("unexpected escrow event")
		}
		return nil
	})

	svc.EscrowChanged(context.Background(), &escrow.Account{
		ID:               uuid.New(),
		DraftID:          "draft-1",
		Status:           escrow.StatusReleased,
		FundedAmount:     67500,
		CommissionAmount: 6750,
		PayeeAmount:      60750,
	}, escrow.StatusFunded)

	// CREATED is not announced
	svc.EscrowChanged(context.Background(), &escrow.Account{ID: uuid.New(), Status: escrow.StatusCreated}, "")

	require.NoError(t, producer.Close())
}

func TestService_PublishFailureIsSwallowed(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	svc := NewService(NewKafkaPublisherWithProducer(producer, "wedbook.pipeline", logger.GetDefault()), logger.GetDefault())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	assert.NotPanics(t, func() {
		svc.ReconciliationRequired(context.Background(), escrow.PendingFunding{EscrowID: uuid.New(), DraftID: "draft-1"})
	})
	require.NoError(t, producer.Close())
}

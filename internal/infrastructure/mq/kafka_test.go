package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Send(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"transfer_no":"TRF1"}` {
			return errors.New("unexpected payload: " + string(val))
		}
		return nil
	})

	p := NewProducerWith(mock)
	require.NoError(t, p.Send(context.Background(), "transfer_committed", "TRF1", `{"transfer_no":"TRF1"}`))
	require.NoError(t, p.Close())
}

func TestProducer_SendFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(mock)
	err := p.Send(context.Background(), "transfer_committed", "TRF2", "{}")
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestProducer_CancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerWith(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Send(ctx, "t", "k", "v"), context.Canceled)
	require.NoError(t, p.Close())
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testEvent() model.TypedEvent {
	return model.TypedEvent{
		ChainID:   1,
		Address:   "0x4444444444444444444444444444444444444444",
		EventName: model.EventTickFilled,
		Timestamp: 1710000000,
		Decoded:   model.TickFilledData{TickID: "7", Amount: "1000", Level: "2", RemainingLiquidity: "998"},
		Raw:       &model.RawLogRef{Topic0: "0xabc", Data: "0x"},
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage(testEvent())
	require.NoError(t, err)
	require.Equal(t, "7", string(msg.Key))
	require.Equal(t, int64(1710000000), msg.Time.Unix())

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, map[string]string{"event_name": "TickFilled", "chain_id": "1", "topic0": "0xabc"}, headers)

	var record model.TypedEventRecord
	require.NoError(t, json.Unmarshal(msg.Value, &record))
	data, err := record.TickFilled()
	require.NoError(t, err)
	require.Equal(t, "998", data.RemainingLiquidity)
}

func TestBuildMessageFallsBackToAddressKey(t *testing.T) {
	ev := testEvent()
	ev.Decoded = nil
	ev.Raw = nil

	msg, err := BuildMessage(ev)
	require.NoError(t, err)
	require.Equal(t, ev.Address, string(msg.Key))
	require.Len(t, msg.Headers, 2)
}

func TestPublisherPutEvents(t *testing.T) {
	writer := &fakeWriter{}
	p := newPublisher(writer, zaptest.NewLogger(t))

	require.NoError(t, p.PutEvents(context.Background(), nil))
	require.NoError(t, p.PutEvents(context.Background(), []model.TypedEvent{testEvent(), testEvent()}))
	require.Len(t, writer.msgs, 2)

	writer.err = errors.New("broker down")
	require.Error(t, p.PutEvents(context.Background(), []model.TypedEvent{testEvent()}))

	require.NoError(t, p.Close())
	require.True(t, writer.closed)
}

func TestNewPublisherValidates(t *testing.T) {
	_, err := NewPublisher(Config{Topic: "events"}, nil)
	require.Error(t, err)
	_, err = NewPublisher(Config{Brokers: []string{"localhost:9092"}}, nil)
	require.Error(t, err)

	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "events"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

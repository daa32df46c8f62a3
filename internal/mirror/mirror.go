package mirror

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/core"
)

// Message is the JSON document published for every relayed event.
type Message struct {
	Kind core.Kind       `json:"kind"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"time"`
}

type Options struct {
	URL    string
	Topic  string
	Name   string
	Logger *logrus.Logger
}

type producer interface {
	SendAsync(ctx context.Context, msg *pulsar.ProducerMessage, callback func(pulsar.MessageID, *pulsar.ProducerMessage, error))
	Close()
}

// Mirror publishes relayed events to a Pulsar topic for consumers outside
// this process. Publishing never waits for the broker.
type Mirror struct {
	client   pulsar.Client
	producer producer
	logger   *logrus.Logger
	now      func() time.Time
}

func New(options Options) (*Mirror, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: options.URL,
	})
	if err != nil {
		return nil, err
	}

	p, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: options.Topic,
		Name:  options.Name,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	return newMirror(client, p, options.Logger), nil
}

func newMirror(client pulsar.Client, p producer, logger *logrus.Logger) *Mirror {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Mirror{
		client:   client,
		producer: p,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Mirror) Publish(ctx context.Context, e *core.Event) error {
	payload, err := json.Marshal(&Message{
		Kind: e.Kind,
		Name: e.Name,
		Data: e.Data,
		Time: m.now().UTC(),
	})
	if err != nil {
		return err
	}

	// the send outlives the webhook request that produced the event
	m.producer.SendAsync(context.WithoutCancel(ctx), &pulsar.ProducerMessage{
		Payload:    payload,
		Key:        string(e.Kind),
		Properties: map[string]string{"name": e.Name},
	}, func(_ pulsar.MessageID, _ *pulsar.ProducerMessage, err error) {
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"kind":  e.Kind,
				"event": e.Name,
			}).WithError(err).Error("mirror send failed")
		}
	})

	return nil
}

func (m *Mirror) Close() {
	m.producer.Close()

	if m.client != nil {
		m.client.Close()
	}
}

// Package pubsub publishes gateway events for downstream consumers
package pubsub // import "github.com/w3licence/licence-gateway/pkg/pubsub"

import (
	"context"
	"encoding/json"
	"sync"

	gpubsub "cloud.google.com/go/pubsub"
	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// GooglePubSubMsg is a payload bound for a topic
type GooglePubSubMsg struct {
	Topic      string
	Payload    string
	Attributes map[string]string
}

// BuildMessage encodes a gateway event for the topic
func BuildMessage(topic string, event *model.GatewayEvent) (*GooglePubSubMsg, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &GooglePubSubMsg{
		Topic:   topic,
		Payload: string(payload),
		Attributes: map[string]string{
			"type": string(event.Type),
			"cid":  event.CID,
		},
	}, nil
}

// NewGooglePubSub returns a GooglePubSub publishing gateway events to
// topicName in projectID. credentialsFile is optional.
func NewGooglePubSub(ctx context.Context, projectID string, topicName string,
	credentialsFile string, extra ...option.ClientOption) (*GooglePubSub, error) {
	opts := append([]option.ClientOption{}, extra...)
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gpubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "pubsub client")
	}
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close() // nolint: errcheck
		return nil, errors.Wrapf(err, "checking topic %v", topicName)
	}
	if !exists {
		_ = client.Close() // nolint: errcheck
		return nil, errors.Errorf("topic %v does not exist", topicName)
	}
	return &GooglePubSub{
		client:    client,
		topicName: topicName,
		topics:    map[string]*gpubsub.Topic{topicName: topic},
	}, nil
}

// GooglePubSub implements model.EventPublisher over Google Cloud Pub/Sub
type GooglePubSub struct {
	client    *gpubsub.Client
	topicName string
	mutex     sync.Mutex
	topics    map[string]*gpubsub.Topic
}

// Publish implements model.EventPublisher
func (g *GooglePubSub) Publish(ctx context.Context, event *model.GatewayEvent) error {
	msg, err := BuildMessage(g.topicName, event)
	if err != nil {
		return err
	}
	return g.PublishMsg(ctx, msg)
}

// PublishMsg publishes a message and waits for the server to accept it
func (g *GooglePubSub) PublishMsg(ctx context.Context, msg *GooglePubSubMsg) error {
	result := g.topic(msg.Topic).Publish(ctx, &gpubsub.Message{
		Data:       []byte(msg.Payload),
		Attributes: msg.Attributes,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return errors.Wrapf(err, "publishing to %v", msg.Topic)
	}
	log.V(2).Infof("Published %v to %v", id, msg.Topic)
	return nil
}

func (g *GooglePubSub) topic(name string) *gpubsub.Topic {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	topic, ok := g.topics[name]
	if !ok {
		topic = g.client.Topic(name)
		g.topics[name] = topic
	}
	return topic
}

// Close flushes pending messages and closes the client
func (g *GooglePubSub) Close() error {
	g.mutex.Lock()
	for _, topic := range g.topics {
		topic.Stop()
	}
	g.mutex.Unlock()
	return g.client.Close()
}

package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"

	gpubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/pubsub"
)

const (
	testProject = "licence-gateway-test"
	testTopic   = "gateway-events"
)

func newEvent() *model.GatewayEvent {
	return model.NewGatewayEvent(model.GatewayEventLicenceIssued,
		common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"), "bafytest", common.HexToHash("0x01"))
}

func TestBuildMessage(t *testing.T) {
	msg, err := pubsub.BuildMessage(testTopic, newEvent())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if msg.Topic != testTopic || msg.Attributes["cid"] != "bafytest" {
		t.Errorf("Unexpected message %+v", msg)
	}
	decoded := &model.GatewayEvent{}
	err = json.Unmarshal([]byte(msg.Payload), decoded)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if decoded.Type != model.GatewayEventLicenceIssued || decoded.TxHash != common.HexToHash("0x01").Hex() {
		t.Errorf("Unexpected payload %v", msg.Payload)
	}
}

func TestGooglePubSubPublish(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close() // nolint: errcheck

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer conn.Close() // nolint: errcheck

	admin, err := gpubsub.NewClient(ctx, testProject, option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = admin.CreateTopic(ctx, testTopic)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	_, err = pubsub.NewGooglePubSub(ctx, testProject, "missing", "", option.WithGRPCConn(conn))
	if err == nil {
		t.Errorf("Should have failed on a missing topic")
	}

	publisher, err := pubsub.NewGooglePubSub(ctx, testProject, testTopic, "", option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	err = publisher.Publish(ctx, newEvent())
	if err != nil {
		t.Fatalf("Should have published: err: %v", err)
	}
	_ = publisher.Close()

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("Should have one message, got %v", len(msgs))
	}
	if msgs[0].Attributes["type"] != string(model.GatewayEventLicenceIssued) {
		t.Errorf("Unexpected attributes %v", msgs[0].Attributes)
	}
}

func TestMemoryPublisher(t *testing.T) {
	publisher := &pubsub.MemoryPublisher{}
	_ = publisher.Publish(context.Background(), newEvent())
	_ = publisher.Publish(context.Background(), model.NewGatewayEvent(model.GatewayEventContentRegistered,
		common.Address{}, "x", common.Hash{}))
	if len(publisher.Events()) != 2 {
		t.Errorf("Should have recorded both events")
	}
	if len(publisher.EventsOfType(model.GatewayEventContentRegistered)) != 1 {
		t.Errorf("Should have filtered by type")
	}
	null := &pubsub.NullPublisher{}
	if null.Publish(context.Background(), newEvent()) != nil {
		t.Errorf("Null publisher should never fail")
	}
}

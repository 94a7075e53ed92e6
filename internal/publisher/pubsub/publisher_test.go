package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

func newTopic(t *testing.T) (*pstest.Server, *pubsub.Topic) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, "acquisitions")
	require.NoError(t, err)
	return srv, topic
}

func TestPublishSendsJSON(t *testing.T) {
	t.Parallel()

	srv, topic := newTopic(t)
	pub := New(topic)
	defer pub.Stop()

	id, err := pub.Publish(context.Background(), "acquisitions", f1.AcquisitionEvent{
		Kind: "calendar", RequestedYear: 2024, YearUsed: 2024, Status: f1.StatusCurrent, Races: 24,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var ev f1.AcquisitionEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &ev))
	assert.Equal(t, f1.StatusCurrent, ev.Status)
	assert.Equal(t, 24, ev.Races)
	assert.Equal(t, "acquisitions", msgs[0].Attributes["topic"])
}

func TestPublishWithoutTopic(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "t", "x")
	assert.Error(t, err)
}

func TestPublishUnencodable(t *testing.T) {
	t.Parallel()

	_, topic := newTopic(t)
	_, err := New(topic).Publish(context.Background(), "t", make(chan int))
	assert.Error(t, err)
}

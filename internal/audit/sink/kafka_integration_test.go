//go:build integration

package sink

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"medledger/internal/audit"
	id "medledger/pkg/domain"
	"medledger/pkg/testutil/containers"
)

func TestKafkaSinkPublish(t *testing.T) {
	ctx := context.Background()
	rp := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const topic = "medledger.audit.test"
	sink, err := NewKafka(ctx, []string{rp.Broker}, topic, logger)
	require.NoError(t, err)

	actor := id.NewUserID()
	target := id.NewUserID()
	grantID := id.NewGrantID()
	event := audit.Event{
		ID:          uuid.New(),
		Action:      audit.ActionAccessGranted,
		PerformedBy: actor,
		TargetUser:  &target,
		Details:     audit.GrantDetails{GrantID: grantID},
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, sink.Publish(ctx, event))
	require.NoError(t, sink.Close(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, actor.String(), string(records[0].Key), "keyed by the acting user")

	var payload struct {
		ID          string          `json:"id"`
		Action      string          `json:"action"`
		PerformedBy string          `json:"performed_by"`
		TargetUser  string          `json:"target_user"`
		Details     json.RawMessage `json:"details"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &payload))
	assert.Equal(t, event.ID.String(), payload.ID)
	assert.Equal(t, string(audit.ActionAccessGranted), payload.Action)
	assert.Equal(t, target.String(), payload.TargetUser)

	var details struct {
		GrantID string `json:"grant_id"`
	}
	require.NoError(t, json.Unmarshal(payload.Details, &details))
	assert.Equal(t, grantID.String(), details.GrantID)
}

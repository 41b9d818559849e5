package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/config"
	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/couchcryptid/covid-data-tracker/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	o := domain.Observation{
		Location:   "Kenya",
		ISOCode:    "KEN",
		Date:       time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC),
		TotalCases: f(113967),
		DeathRate:  f(1.688),
	}

	msg, err := serializeToMessage(o, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Kenya|2021-03-14"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "location", msg.Headers[0].Key)
	assert.Equal(t, []byte("Kenya"), msg.Headers[0].Value)
	assert.Equal(t, "iso_code", msg.Headers[1].Key)
	assert.Equal(t, []byte("KEN"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Kenya", decoded.Location)
	assert.Equal(t, now, decoded.ProcessedAt)
	require.NotNil(t, decoded.TotalCases)
	assert.InDelta(t, 113967, *decoded.TotalCases, 0)
	assert.Nil(t, decoded.TotalDeaths, "absent values are omitted")
	assert.NotContains(t, string(msg.Value), "total_deaths")
}

func TestPublisher_EmptyBatchIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "covid-observations"}
	p := NewPublisher(cfg, clockwork.NewFakeClock(), observability.DiscardLogger())
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), nil))
}

func TestPublisher_UnreachableBroker(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "covid-observations"}
	p := NewPublisher(cfg, clockwork.NewFakeClock(), observability.DiscardLogger())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Publish(ctx, []domain.Observation{{Location: "Kenya", Date: time.Now()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write observations")
}

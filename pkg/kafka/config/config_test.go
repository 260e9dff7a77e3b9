package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, int64(-2), cfg.ConsumerStartOffset)
	assert.Equal(t, DefaultConsumerRetryBackoff, cfg.ConsumerRetryBackoff)
}

func TestLoad_ParsesBrokerList(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv(EnvKafkaConsumerMaxRetries, "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, 5, cfg.ConsumerMaxRetries)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		ProducerCompression: "brotli",
		ProducerRequireAcks: 2,
		ConsumerStartOffset: 7,
		ConsumerMaxRetries:  -1,
		ConsumerMaxWait:     time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"broker", "ProducerCompression", "ProducerRequireAcks", "ConsumerStartOffset", "ConsumerMaxRetries"} {
		assert.Contains(t, err.Error(), want)
	}
}

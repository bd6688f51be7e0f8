package serialmon

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// MQTTConfig describes the broker lines are relayed to.
type MQTTConfig struct {
	BrokerAddress string
	Topic         string
	Username      string
	Password      string
	ClientID      string
	QoS           byte
	// PublishTimeout bounds how long Emit waits for the broker. Zero uses
	// one second.
	PublishTimeout time.Duration
}

// mqttPublisher is the part of mqtt.Client used by MQTTSink.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink relays each line to an MQTT topic. Publish failures are logged
// and counted, never fatal: the console stays the primary output.
type MQTTSink struct {
	client  mqttPublisher
	topic   string
	qos     byte
	timeout time.Duration
	logger  zerolog.Logger

	published atomic.Int64
	failures  atomic.Int64
}

// NewMQTTSink connects to the broker and returns a sink publishing to
// cfg.Topic.
func NewMQTTSink(cfg MQTTConfig, logger zerolog.Logger) (*MQTTSink, error) {
	if cfg.BrokerAddress == "" {
		return nil, errors.New("mqtt: broker address cannot be empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt: topic cannot be empty")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt: invalid qos %d", cfg.QoS)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerAddress)
	if cfg.ClientID == "" {
		cfg.ClientID = generateClientID()
	}
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Str("broker", cfg.BrokerAddress).Msg("mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connecting to %s: %w", cfg.BrokerAddress, token.Error())
	}
	logger.Info().Str("broker", cfg.BrokerAddress).Str("topic", cfg.Topic).Msg("relaying lines to mqtt")

	return newMQTTSink(client, cfg, logger), nil
}

func newMQTTSink(client mqttPublisher, cfg MQTTConfig, logger zerolog.Logger) *MQTTSink {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return &MQTTSink{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *MQTTSink) Emit(index int, line string) error {
	token := s.client.Publish(s.topic, s.qos, false, line)
	if !token.WaitTimeout(s.timeout) {
		s.failures.Inc()
		s.logger.Warn().Int("index", index).Dur("timeout", s.timeout).Msg("mqtt publish timed out")
		return nil
	}
	if err := token.Error(); err != nil {
		s.failures.Inc()
		s.logger.Warn().Err(err).Int("index", index).Msg("mqtt publish failed")
		return nil
	}
	s.published.Inc()
	return nil
}

// Published and Failures count publish outcomes since the sink was created.
func (s *MQTTSink) Published() int64 { return s.published.Load() }

func (s *MQTTSink) Failures() int64 { return s.failures.Load() }

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}

func generateClientID() string {
	now := time.Now().Unix()
	random := rand.Intn(1000000)
	return fmt.Sprintf("serialmon-%v-%v", now, random)
}

package ingest

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/rioastal/wastesense/internal/service"
)

// Config holds the broker connection settings.
type Config struct {
	Broker    string
	Username  string
	Password  string
	ClientID  string
	TopicRain string
	TopicGas  string
}

// Subscriber feeds broker messages into the record service. Reconnection is
// paho's job; we resubscribe on every connect.
type Subscriber struct {
	cfg     Config
	client  mqtt.Client
	records *service.RecordService
}

func New(cfg Config, records *service.RecordService) *Subscriber {
	s := &Subscriber{cfg: cfg, records: records}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect)

	s.client = mqtt.NewClient(opts)
	return s
}

func (s *Subscriber) Start() error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (s *Subscriber) Stop() {
	s.client.Disconnect(250)
}

// onConnect subscribes to both topics independently; one failing must not
// keep the other from being attempted.
func (s *Subscriber) onConnect(c mqtt.Client) {
	log.Info().Str("broker", s.cfg.Broker).Msg("connected to mqtt broker")
	for _, topic := range []string{s.cfg.TopicRain, s.cfg.TopicGas} {
		if token := c.Subscribe(topic, 0, s.handle); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("subscribe failed")
			continue
		}
		log.Info().Str("topic", topic).Msg("subscribed")
	}
}

// handle is at-most-once: any failure is logged and the message dropped,
// never retried or nacked.
func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	if err := s.records.FromMQTT(msg.Topic(), msg.Payload()); err != nil {
		log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
	}
}

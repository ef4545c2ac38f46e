package main

import (
	"math/rand"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/rioastal/wastesense/internal/config"
)

// Publishes bare decimal payloads to both sensor topics, the way the field
// devices do.
func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID("wastesense-simulator").
		SetUsername(config.MQTTUsername()).
		SetPassword(config.MQTTPassword())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	for i := 0; i < 100; i++ {
		topic := config.TopicRain()
		value := rand.Float64() * 25 // mm of rain
		if i%2 == 1 {
			topic = config.TopicGas()
			value = 10 + rand.Float64()*60 // ppm methane
		}

		payload := strconv.FormatFloat(value, 'f', 2, 64)
		token := client.Publish(topic, 0, false, []byte(payload))
		token.Wait()
		log.Info().Str("topic", topic).Str("payload", payload).Msg("published")
		time.Sleep(500 * time.Millisecond)
	}
	log.Info().Msg("simulation done")
}

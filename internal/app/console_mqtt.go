package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pitch_computer/internal/config"
	"github.com/relabs-tech/pitch_computer/internal/telemetry"
)

// RunConsoleMQTT decodes the telemetry serial stream like RunConsole, but
// republishes every valid frame as JSON so the web and display apps can
// subscribe to it.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	port, err := openReceivePort(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	frames := 0
	bad := 0
	err = readFrames(port, func(f telemetry.Frame) {
		frames++

		payload, err := json.Marshal(f)
		if err != nil {
			log.Printf("console: frame marshal error: %v", err)
			return
		}
		if token := client.Publish(cfg.TopicPitch, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("console: MQTT publish error: %v", token.Error())
			return
		}

		fmt.Printf("[PITCH] ay=%6d az=%6d gx=%6d  pitch=%7.2f\n", f.Ay, f.Az, f.Gx, f.Pitch)
	}, func(decodeErr error) {
		bad++
		log.Printf("console: dropped frame: %v", decodeErr)
	})

	log.Printf("console: link closed after %d frames (%d dropped)", frames, bad)
	return err
}

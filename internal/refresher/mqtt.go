package refresher

import (
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/metrics"
)

const DefaultTopic = "floorwatch/buildings/+/updated"

// RefreshFunc asks every mounted view of buildingID to refresh and reports
// how many were asked. It is called from the MQTT client's delivery
// goroutine and must not block.
type RefreshFunc func(buildingID string) int

type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// MQTTTrigger listens for building-updated notifications and turns each one
// into a refresh of the affected views.
type MQTTTrigger struct {
	log     zerolog.Logger
	client  mqtt.Client
	topic   string
	qos     byte
	refresh RefreshFunc
	metrics *metrics.Metrics
}

func NewMQTTTrigger(log zerolog.Logger, opts MQTTOptions, refresh RefreshFunc, m *metrics.Metrics) *MQTTTrigger {
	topic := strings.TrimSpace(opts.Topic)
	if topic == "" {
		topic = DefaultTopic
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetCleanSession(true)

	t := &MQTTTrigger{
		log:     log,
		topic:   topic,
		qos:     opts.QoS,
		refresh: refresh,
		metrics: m,
	}
	// Resubscribe after every (re)connect; a clean session drops subscriptions.
	co.SetOnConnectHandler(func(c mqtt.Client) {
		if err := t.subscribe(c); err != nil {
			t.log.Error().Err(err).Str("topic", t.topic).Msg("mqtt resubscribe failed")
		}
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.log.Warn().Err(err).Msg("mqtt connection lost")
	})
	t.client = mqtt.NewClient(co)
	return t
}

// Start connects to the broker. Subscription happens in the connect handler.
func (t *MQTTTrigger) Start() error {
	if token := t.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}
	t.log.Info().Str("topic", t.topic).Msg("mqtt refresh trigger connected")
	return nil
}

func (t *MQTTTrigger) Stop() {
	if t.client == nil || !t.client.IsConnected() {
		return
	}
	if token := t.client.Unsubscribe(t.topic); token.Wait() && token.Error() != nil {
		t.log.Warn().Err(token.Error()).Msg("mqtt unsubscribe failed")
	}
	t.client.Disconnect(250)
}

func (t *MQTTTrigger) subscribe(c mqtt.Client) error {
	token := c.Subscribe(t.topic, t.qos, func(_ mqtt.Client, msg mqtt.Message) {
		t.handle(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", t.topic, token.Error())
	}
	return nil
}

func (t *MQTTTrigger) handle(topic string, payload []byte) {
	buildingID, ok := BuildingFromTopic(t.topic, topic, payload)
	if !ok {
		t.log.Warn().Str("topic", topic).Msg("mqtt message without building id ignored")
		return
	}
	t.metrics.IncRefreshTrigger("mqtt")
	n := t.refresh(buildingID)
	t.log.Debug().Str("building_id", buildingID).Int("views", n).Msg("mqtt refresh trigger")
}

// BuildingFromTopic extracts the building id from topic using the single-level
// wildcard in pattern. Patterns without a wildcard carry the id in the
// payload instead.
func BuildingFromTopic(pattern, topic string, payload []byte) (string, bool) {
	pp := strings.Split(pattern, "/")
	wild := -1
	for i, p := range pp {
		if p == "+" {
			wild = i
			break
		}
	}
	if wild < 0 {
		id := strings.TrimSpace(string(payload))
		return id, id != ""
	}

	tp := strings.Split(topic, "/")
	if len(tp) != len(pp) {
		return "", false
	}
	for i := range pp {
		if pp[i] == "+" || pp[i] == tp[i] {
			continue
		}
		return "", false
	}
	id := tp[wild]
	return id, id != ""
}

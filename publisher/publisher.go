// Package publisher pushes spot prices to an MQTT broker as retained
// messages, so home automation picks up the latest table on subscribe.
package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/config"
	"github.com/icodeforyou/spotprice-go/spot"
)

const publishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("timeout when publishing to mqtt broker")

type DayMessage struct {
	Date   string           `json:"date"`
	Unit   calc.Unit        `json:"unit"`
	Prices []spot.HourPrice `json:"prices"`
}

type AverageMessage struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Average float64   `json:"average"`
	Unit    calc.Unit `json:"unit"`
	Updated time.Time `json:"updated"`
}

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Publisher struct {
	client client
	logger *slog.Logger
	prefix string
	qos    byte
}

func New(logger *slog.Logger, cnfg config.AppConfigMqtt) *Publisher {
	logger = logger.With(slog.String("module", "publisher"))

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cnfg.Broker)
	opts.SetClientID(cnfg.ClientID)
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("MQTT connected", slog.String("broker", cnfg.Broker))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	pahoLogger := logger.With(slog.String("component", "paho"))
	mqtt.CRITICAL = mqttLogger{logger: pahoLogger, level: slog.LevelError}
	mqtt.ERROR = mqttLogger{logger: pahoLogger, level: slog.LevelError}
	mqtt.WARN = mqttLogger{logger: pahoLogger, level: slog.LevelWarn}

	return newPublisher(logger, mqtt.NewClient(opts), cnfg.GetTopicPrefix(), cnfg.Qos)
}

func newPublisher(logger *slog.Logger, c client, prefix string, qos byte) *Publisher {
	return &Publisher{client: c, logger: logger, prefix: prefix, qos: qos}
}

// Connect returns once the first connection attempt is done, with
// SetConnectRetry paho keeps trying in the background after that.
func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	token := p.client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warn("MQTT broker not reachable yet, retrying in background")
		return nil
	}
	return token.Error()
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting MQTT client")
	p.client.Disconnect(250)
}

func (p *Publisher) DayTopic(date string) string {
	return fmt.Sprintf("%s/prices/%s", p.prefix, date)
}

func (p *Publisher) AverageTopic() string {
	return p.prefix + "/average"
}

// PublishPrices sends one retained message per day of bucket.
func (p *Publisher) PublishPrices(bucket spot.DayBucket, unit calc.Unit) error {
	var errs []error
	for _, day := range bucket.Days() {
		msg := DayMessage{Date: day, Unit: unit, Prices: bucket[day]}
		if err := p.publish(p.DayTopic(day), msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) PublishAverage(msg AverageMessage) error {
	return p.publish(p.AverageTopic(), msg)
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	p.logger.Debug("published", slog.String("topic", topic), slog.Int("bytes", len(payload)))
	return nil
}

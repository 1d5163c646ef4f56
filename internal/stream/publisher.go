// Package stream sends rendered movie frames to LED devices over MQTT.
package stream

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/ivlev/reel/internal/movie"
)

var ErrTimeout = errors.New("stream: mqtt operation timed out")

// Config is the broker and layout of the target device.
type Config struct {
	URL      string `yaml:"url"`
	ClientID string `yaml:"clientId"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	Columns  int    `yaml:"columns"`
	Rows     int    `yaml:"rows"`
	// Smoothing blends each frame with the previous one (0 disables).
	Smoothing float64 `yaml:"smoothing"`
}

// Client publishes a payload to a topic.
type Client interface {
	Publish(topic string, payload []byte) error
}

// MQTTClient adapts a paho client to Client.
type MQTTClient struct {
	client  mqtt.Client
	timeout time.Duration
}

// Connect dials the broker in cfg.
func Connect(cfg Config) (*MQTTClient, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "reel"
	}
	options := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second)
	client := mqtt.NewClient(options)

	c := &MQTTClient{client: client, timeout: 5 * time.Second}
	if err := c.wait(client.Connect()); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
	}
	return c, nil
}

func (c *MQTTClient) Publish(topic string, payload []byte) error {
	return c.wait(c.client.Publish(topic, 0, false, payload))
}

func (c *MQTTClient) Close() {
	c.client.Disconnect(250)
}

func (c *MQTTClient) wait(token mqtt.Token) error {
	if !token.WaitTimeout(c.timeout) {
		return ErrTimeout
	}
	return token.Error()
}

// Publisher downsamples frames to the device grid and publishes them.
type Publisher struct {
	client    Client
	topic     string
	cols      int
	rows      int
	smoothing float64

	mu   sync.Mutex
	last Frame
	sent int
}

func NewPublisher(client Client, cfg Config) *Publisher {
	cols, rows := cfg.Columns, cfg.Rows
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	return &Publisher{
		client:    client,
		topic:     cfg.Topic,
		cols:      cols,
		rows:      rows,
		smoothing: cfg.Smoothing,
	}
}

// Publish sends one rendered frame.
func (p *Publisher) Publish(img *image.RGBA) error {
	f := Sample(img, p.cols, p.rows)

	p.mu.Lock()
	if p.smoothing > 0 && len(p.last) == len(f) {
		f = f.Blend(p.last, p.smoothing)
	}
	p.last = f
	p.mu.Unlock()

	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if err := p.client.Publish(p.topic, b); err != nil {
		return err
	}

	p.mu.Lock()
	p.sent++
	p.mu.Unlock()
	return nil
}

// Sent is the number of frames published.
func (p *Publisher) Sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Attach publishes every frame m renders until the returned function is
// called. Publish errors are logged, not fatal to playback.
func (p *Publisher) Attach(m *movie.Movie) (detach func()) {
	return m.On(movie.EventFrame, func(ev movie.Event) {
		img, ok := ev.Data.(*image.RGBA)
		if !ok {
			return
		}
		if err := p.Publish(img); err != nil {
			movie.Logger().Warn("frame publish failed", "topic", p.topic, "time", ev.Time, "err", err)
		}
	})
}

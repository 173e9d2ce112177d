package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	mqtt "github.com/soypat/natiu-mqtt"
	"go.uber.org/zap"
)

const (
	TopicPosition = "position"
	TopicEvent    = "event"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

type Option func(*Publisher)

func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.timeout = d
	}
}

func WithCredentials(user, pass string) Option {
	return func(p *Publisher) {
		p.user, p.pass = user, pass
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Dial connects to the broker at addr over TCP.
func Dial(ctx context.Context, addr, clientID string, opts ...Option) (*Publisher, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial broker failed: %w", err)
	}

	p, err := Connect(conn, clientID, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

// Connect runs the MQTT handshake over an established connection.
func Connect(conn net.Conn, clientID string, opts ...Option) (*Publisher, error) {
	p := &Publisher{
		conn:    conn,
		prefix:  "scopeui",
		timeout: 5 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.client = mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(_ mqtt.Header, vp mqtt.VariablesPublish, _ io.Reader) error {
			p.logger.With(zap.ByteString("topic", vp.TopicName)).Debug("mqtt-ignored")
			return nil
		},
	})

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(clientID))
	if p.user != "" {
		varconn.Username = []byte(p.user)
		if p.pass != "" {
			varconn.Password = []byte(p.pass)
		}
	}

	if err := conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
		return nil, err
	}
	if err := p.client.StartConnect(conn, &varconn); err != nil {
		return nil, errors.Wrap(err, "mqtt connect")
	}
	for !p.client.IsConnected() {
		if err := p.client.HandleNext(); err != nil {
			return nil, errors.Wrap(err, "mqtt connack")
		}
	}

	p.logger.With(zap.String("broker", conn.RemoteAddr().String()), zap.String("client-id", clientID)).Info("mqtt-connected")
	return p, nil
}

// Publisher sends JSON payloads at QoS 0. It is safe for concurrent use.
type Publisher struct {
	mu       sync.Mutex
	conn     net.Conn
	client   *mqtt.Client
	packetID uint16

	prefix     string
	timeout    time.Duration
	user, pass string
	logger     *zap.Logger
}

func (p *Publisher) Topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

// Publish marshals v and sends it to <prefix>/<topic>.
func (p *Publisher) Publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnected() {
		return errors.Errorf("mqtt not connected: %v", p.client.Err())
	}

	p.packetID++
	vp := mqtt.VariablesPublish{
		TopicName:        []byte(p.Topic(topic)),
		PacketIdentifier: p.packetID,
	}

	if err := p.conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
		return err
	}
	if err := p.client.PublishPayload(pubFlags, vp, payload); err != nil {
		return fmt.Errorf("publish %s failed: %w", vp.TopicName, err)
	}

	p.logger.With(zap.String("topic", string(vp.TopicName)), zap.Int("size", len(payload))).Debug("mqtt-published")
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

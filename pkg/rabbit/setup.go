package rabbit

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=rabbit

// Logger defines the logging operations used by the rabbit package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Rabbit owns one connection and one confirm-mode channel. The channel is
// replaced transparently after a reconnect; callers never hold it.
type Rabbit struct {
	cfg     Config
	channel *amqp.Channel
	conn    *amqp.Connection
	logger  Logger
	mu      sync.RWMutex

	shutdownSignal chan struct{}
	shutdownOnce   sync.Once
}

// NewClient dials the broker and declares the exchange, the queue and the
// optional dead-letter topology.
func NewClient(cfg Config, logger Logger) (*Rabbit, error) {
	conn, err := newConnection(cfg, logger)
	if err != nil {
		return nil, err
	}

	ch, err := connectToChannel(conn, cfg, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Rabbit{
		cfg:            cfg,
		conn:           conn,
		channel:        ch,
		logger:         logger,
		shutdownSignal: make(chan struct{}),
	}, nil
}

// Config returns the configuration the client was built with.
func (rb *Rabbit) Config() Config {
	return rb.cfg
}

func connectToChannel(conn *amqp.Connection, cfg Config, logger Logger) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err = declareTopology(ch, cfg); err != nil {
		logger.Error("failed to declare rabbit topology", err, map[string]interface{}{
			"exchange": cfg.Channel.ExchangeName,
			"queue":    cfg.Channel.QueueName,
		})
		_ = ch.Close()
		return nil, err
	}

	if cfg.Channel.PrefetchCount > 0 {
		if err = ch.Qos(cfg.Channel.PrefetchCount, 0, false); err != nil {
			return nil, fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	return ch, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	err := ch.ExchangeDeclare(cfg.Channel.ExchangeName, cfg.Channel.ExchangeType, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	queueArgs := amqp.Table{}
	if dl := cfg.DeadLetter; dl.ExchangeName != "" {
		if err = ch.ExchangeDeclare(dl.ExchangeName, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare dead letter exchange: %w", err)
		}
		if _, err = ch.QueueDeclare(dl.QueueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare dead letter queue: %w", err)
		}
		if err = ch.QueueBind(dl.QueueName, dl.RoutingKey, dl.ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind dead letter queue: %w", err)
		}

		queueArgs["x-dead-letter-exchange"] = dl.ExchangeName
		queueArgs["x-dead-letter-routing-key"] = dl.RoutingKey
		if dl.Ttl > 0 {
			queueArgs["x-message-ttl"] = dl.Ttl * 1000
		}
	}

	if _, err = ch.QueueDeclare(cfg.Channel.QueueName, true, false, false, false, queueArgs); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err = ch.QueueBind(cfg.Channel.QueueName, cfg.Channel.RoutingKey, cfg.Channel.ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// retryConnection waits for the connection to close and re-dials until it
// succeeds or the client shuts down.
func (rb *Rabbit) retryConnection() {
	for {
		rb.mu.RLock()
		errChan := rb.conn.NotifyClose(make(chan *amqp.Error, 1))
		rb.mu.RUnlock()

		select {
		case <-rb.shutdownSignal:
			return
		case err := <-errChan:
			rb.logger.Warn("RabbitMQ connection closed, retrying...", err, nil)
		}

		for {
			select {
			case <-rb.shutdownSignal:
				return
			default:
			}

			conn, err := newConnection(rb.cfg, rb.logger)
			if err != nil {
				time.Sleep(time.Second)
				continue
			}
			ch, err := connectToChannel(conn, rb.cfg, rb.logger)
			if err != nil {
				rb.logger.Error("Failed to reopen channel, retrying...", err, nil)
				_ = conn.Close()
				time.Sleep(time.Second)
				continue
			}

			rb.mu.Lock()
			rb.conn = conn
			rb.channel = ch
			rb.mu.Unlock()

			rb.logger.Info("Reconnected to RabbitMQ", nil, nil)
			break
		}
	}
}

// gracefulShutdown stops the retry loop and closes the channel and the
// connection. Safe to call more than once.
func (rb *Rabbit) gracefulShutdown() {
	rb.shutdownOnce.Do(func() {
		close(rb.shutdownSignal)

		rb.mu.Lock()
		defer rb.mu.Unlock()

		rb.logger.Info("closing rabbit channel...", nil, nil)
		if rb.channel != nil && !rb.channel.IsClosed() {
			if err := rb.channel.Close(); err != nil {
				rb.logger.Error("error in closing rabbit channel", err, nil)
			}
		}
		if rb.conn != nil && !rb.conn.IsClosed() {
			if err := rb.conn.Close(); err != nil {
				rb.logger.Error("error in closing rabbit connection", err, nil)
			}
		}
	})
}

func connectionURI(c Connection) string {
	scheme := "amqp"
	if c.IsSSLEnabled {
		scheme = "amqps"
	}
	vhost := c.VHost
	if vhost == "" {
		vhost = "/"
	}
	return amqp.URI{
		Scheme:   scheme,
		Host:     c.Host,
		Port:     int(c.Port),
		Username: c.User,
		Password: c.Password,
		Vhost:    vhost,
	}.String()
}

func newConnection(cfg Config, logger Logger) (*amqp.Connection, error) {
	amqpCfg := amqp.Config{Heartbeat: 10 * time.Second}

	if cfg.Connection.IsSSLEnabled && cfg.Connection.UseCert {
		tlsConfig, err := loadTLSConfig(cfg.Connection)
		if err != nil {
			logger.Error("failed to load rabbit TLS material", err, nil)
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	fields := map[string]interface{}{
		"host": cfg.Connection.Host,
		"port": cfg.Connection.Port,
		"tls":  cfg.Connection.IsSSLEnabled,
	}

	conn, err := amqp.DialConfig(connectionURI(cfg.Connection), amqpCfg)
	if err != nil {
		logger.Error("error in connecting to rabbit", err, fields)
		return nil, fmt.Errorf("failed to connect to Rabbit: %w", err)
	}

	logger.Info("Connected to Rabbit", nil, fields)
	return conn, nil
}

func loadTLSConfig(c Connection) (*tls.Config, error) {
	caCert, err := os.ReadFile(c.CACertPath)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("no certificates found in %s", c.CACertPath)
	}

	cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load client cert/key: %w", err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		ServerName:   c.ServerName,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

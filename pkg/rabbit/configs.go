package rabbit

// Config describes the broker connection and the exchange/queue topology
// used for ingest jobs.
type Config struct {
	Connection Connection `yaml:"connection"`
	Channel    Channel    `yaml:"channel"`
	DeadLetter DeadLetter `yaml:"dead_letter"`
}

type Connection struct {
	Host           string `yaml:"host" envconfig:"RABBIT_HOST"`
	Port           uint   `yaml:"port" envconfig:"RABBIT_PORT"`
	User           string `yaml:"user" envconfig:"RABBIT_USER"`
	Password       string `yaml:"password" envconfig:"RABBIT_PASSWORD"`
	VHost          string `yaml:"vhost" envconfig:"RABBIT_VHOST"`
	IsSSLEnabled   bool   `yaml:"ssl_enabled" envconfig:"RABBIT_SSL_ENABLED"`
	UseCert        bool   `yaml:"use_cert" envconfig:"RABBIT_USE_CERT"`
	CACertPath     string `yaml:"ca_cert_path" envconfig:"RABBIT_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBIT_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" envconfig:"RABBIT_CLIENT_KEY_PATH"`
	ServerName     string `yaml:"server_name" envconfig:"RABBIT_SERVER_NAME"`
}

type Channel struct {
	ExchangeName  string `yaml:"exchange_name" envconfig:"RABBIT_EXCHANGE"`
	ExchangeType  string `yaml:"exchange_type" envconfig:"RABBIT_EXCHANGE_TYPE"`
	RoutingKey    string `yaml:"routing_key" envconfig:"RABBIT_ROUTING_KEY"`
	QueueName     string `yaml:"queue_name" envconfig:"RABBIT_QUEUE"`
	PrefetchCount int    `yaml:"prefetch_count" envconfig:"RABBIT_PREFETCH_COUNT"`
	ContentType   string `yaml:"content_type" envconfig:"RABBIT_CONTENT_TYPE"`
}

// DeadLetter configures where rejected messages go. Leave ExchangeName
// empty to disable dead-lettering.
type DeadLetter struct {
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBIT_DLX_EXCHANGE"`
	QueueName    string `yaml:"queue_name" envconfig:"RABBIT_DLX_QUEUE"`
	RoutingKey   string `yaml:"routing_key" envconfig:"RABBIT_DLX_ROUTING_KEY"`
	// Ttl in seconds; messages not consumed in time are dead-lettered.
	// Zero disables expiry.
	Ttl int `yaml:"ttl" envconfig:"RABBIT_DLX_TTL"`
}

// DefaultConfig returns the topology used by the ingest job queue.
func DefaultConfig() Config {
	return Config{
		Connection: Connection{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Channel: Channel{
			ExchangeName:  "bookrag",
			ExchangeType:  "direct",
			RoutingKey:    "ingest",
			QueueName:     "bookrag.ingest",
			PrefetchCount: 1,
			ContentType:   "application/json",
		},
		DeadLetter: DeadLetter{
			ExchangeName: "bookrag.dlx",
			QueueName:    "bookrag.ingest.dlq",
			RoutingKey:   "ingest.dead",
		},
	}
}

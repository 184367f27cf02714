package events

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads YAML from file path. If path is empty, returns zero value.
func LoadConfig(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	return c, err
}

// Build creates a Dispatcher with every sink enabled in cfg. Failed
// deliveries are logged through logger. It returns nil when no sink is
// enabled. The caller closes the dispatcher to release sink connections.
func Build(cfg Config, logger *zap.SugaredLogger) (*Dispatcher, error) {
	var sinks []Sink
	if wh := NewWebhookSink(cfg.Sinks.Webhook); wh != nil {
		sinks = append(sinks, wh)
	}
	rs, err := NewRedisSink(cfg.Sinks.Redis)
	if err != nil {
		return nil, err
	}
	if rs != nil {
		sinks = append(sinks, rs)
	}
	ks, err := NewKafkaSink(cfg.Sinks.Kafka)
	if err != nil {
		_ = rs.Close()
		return nil, err
	}
	if ks != nil {
		sinks = append(sinks, ks)
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return NewDispatcher(cfg, &LogDLQ{Logger: logger}, sinks...), nil
}

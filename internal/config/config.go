package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 汇总服务所需的全部运行时配置
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	MySQL         MySQLConfig         `yaml:"mysql"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Logging       LoggingConfig       `yaml:"logging"`
	App           AppConfig           `yaml:"app"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Params   string `yaml:"params"`
}

// DSN 拼接 go-sql-driver 格式的连接串
func (c MySQLConfig) DSN() string {
	params := c.Params
	if params == "" {
		params = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.User, c.Password, c.Host, c.Port, c.Database, params)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	NotificationTopic string   `yaml:"notificationTopic"`
	RetryTopic        string   `yaml:"retryTopic"`
	GroupID           string   `yaml:"groupId"`
}

// Enabled Kafka 未配置 broker 时通知走同步落库
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type AppConfig struct {
	ImageUploadDir string `yaml:"imageUploadDir"`
}

type ObservabilityConfig struct {
	ServiceName string           `yaml:"serviceName"`
	Environment string           `yaml:"environment"`
	Tracing     TracingConfig    `yaml:"tracing"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     ObsLoggingConfig `yaml:"logging"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	OTLPGrpcEndpoint string  `yaml:"otlpGrpcEndpoint"`
	Insecure         bool    `yaml:"insecure"`
	SampleRate       float64 `yaml:"sampleRate"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ObsLoggingConfig struct {
	RequestIDHeader string `yaml:"requestIdHeader"`
}

// Load 读取并解析 YAML 配置文件
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	return &cfg, nil
}

// MustLoad 加载失败直接 panic，供 main 使用
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package app defines global configuration models and config loading helpers.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	envKey  = "RUN_ENV"
	nameKey = "APP_NAME"

	// RoleScheduler runs the control-plane tier: HTTP admin, scheduling
	// engine, leader election, and the job-result consumer.
	RoleScheduler = "scheduler"
	// RoleExecutor runs the stateless worker tier: intake, runner, heartbeat.
	RoleExecutor = "executor"
)

// config stores the singleton configuration loaded by LoadConfig.
var config *Config

type (
	// Config is the root configuration model loaded from bin/configs/*.json.
	Config struct {
		System    SysConfig       `json:"system"`    // Application runtime settings.
		Log       LogConfig       `json:"log"`       // Logger output settings.
		Databases []Databases     `json:"databases"` // Database connection settings.
		Cache     Cache           `json:"cache"`     // Cache settings.
		Redis     []Redis         `json:"redis"`     // Redis client settings.
		Monitor   Monitor         `json:"monitor"`   // Panic and alert monitor settings.
		Feishu    Feishu          `json:"feishu"`    // Feishu integration settings.
		Kafka     Kafka           `json:"kafka"`     // Broker connection settings.
		Etcd      Etcd            `json:"etcd"`      // Coordination service connection settings.
		Scheduler SchedulerConfig `json:"scheduler"` // Scheduling engine tuning.
		Executor  ExecutorConfig  `json:"executor"`  // Executor runtime tuning.
	}

	// LogConfig controls logger driver and severity level.
	LogConfig struct {
		Driver  string `json:"driver"` // Logger driver, such as "stdout" or "file".
		Level   string `json:"level"`  // Log level: debug, info, warn, error, fatal.
		LogPath string `json:"path"`   // Log file path when driver is "file".
	}

	// SysConfig stores basic runtime properties for the service.
	SysConfig struct {
		Name         string        `json:"name"`          // Service name.
		Role         string        `json:"role"`           // Process role: scheduler or executor.
		NodeID       string        `json:"node_id"`        // Stable identity for leader election / executor roster.
		RunMode      string        `json:"run_mode"`      // Gin run mode.
		HTTPPort     string        `json:"http_port"`     // HTTP listen address.
		ReadTimeout  time.Duration `json:"read_timeout"`  // Maximum request read timeout in seconds.
		WriteTimeout time.Duration `json:"write_timeout"` // Maximum response write timeout in seconds.
		Version      string        `json:"version"`       // Service version.
		RootPath     string        `json:"root_path"`     // Runtime root path.
		DebugMode    bool          `json:"debug_mode"`    // Debug mode toggle.
		LangDir      string        `json:"lang_dir"`      // i18n language files directory.
		DefaultLang  string        `json:"default_lang"`  // Default language key.
		EnvKey       string        `json:"env_key"`       // Environment variable key that stores run env.
		JwtSecret    string        `json:"jwt_secret"`    // Secret key for JWT signing.
		TokenExpire  time.Duration `json:"token_expire"`  // JWT expiration time in seconds.
		Env          string        `json:"env"`           // Resolved runtime environment.
		RateLimit    int           `json:"rate_limit_per_second"` // Admin API sustained requests/sec; 0 selects the default of 50, <0 disables.
	}

	// Databases stores one database connection profile.
	Databases struct {
		Enable                 bool          `json:"enable"`                              // Whether this DB profile is enabled.
		DbType                 string        `json:"db_type"`                             // Database type, such as mysql.
		DbHost                 string        `json:"db_host"`                             // Database host.
		DbPort                 string        `json:"db_port"`                             // Database port.
		DbName                 string        `json:"db_name"`                             // Database name.
		DbUsername             string        `json:"db_username,omitempty"`               // Database username.
		DbPassword             string        `json:"db_password,omitempty"`               // Database password.
		DbMaxIdleConn          int           `json:"db_max_idle_conn,omitempty"`          // Maximum idle connections.
		DbMaxOpenConn          int           `json:"db_max_open_conn,omitempty"`          // Maximum open connections.
		DbMaxLifetime          time.Duration `json:"db_max_lifetime,omitempty"`           // Connection max lifetime in hours.
		DbConnectRetryCount    int           `json:"db_connect_retry_count,omitempty"`    // Retry count when DB initialization fails.
		DbConnectRetryInterval int           `json:"db_connect_retry_interval,omitempty"` // Retry interval in seconds.
	}

	// Cache holds global cache settings.
	Cache struct {
		Driver string `json:"driver"` // Cache driver name.
		Prefix string `json:"prefix"` // Cache key prefix.
	}

	// Redis stores one Redis connection profile.
	Redis struct {
		Name        string        `json:"name"`         // Redis connection alias.
		Enable      bool          `json:"enable"`       // Whether this Redis profile is enabled.
		Host        string        `json:"host"`         // Redis host.
		Auth        string        `json:"auth"`         // Redis password or auth token.
		MaxIdle     int           `json:"max_idle"`     // Maximum idle connections.
		MaxActive   int           `json:"max_active"`   // Maximum active connections.
		IdleTimeout time.Duration `json:"idle_timeout"` // Idle timeout in minutes.
		Prefix      string        `json:"prefix"`       // Redis key prefix.
		DB          int           `json:"db"`
	}

	Monitor struct {
		PanicRobot PanicRobot `json:"panic_robot"`
	}

	PanicRobot struct {
		Enable bool        `json:"enable"`
		Wechat robotConfig `json:"wechat"`
		Feishu robotConfig `json:"feishu"`
	}

	robotConfig struct {
		Enable  bool   `json:"enable"`
		PushUrl string `json:"push_url"`
	}

	Feishu struct {
		Enable       bool   `json:"enable"`
		GroupWebhook string `json:"group_webhook"`
		AppID        string `json:"app_id"`
		AppSecret    string `json:"app_secret"`
		EncryptKey   string `json:"encrypt_key"`
	}

	// Kafka controls the broker client (C8) used by both process roles.
	Kafka struct {
		Brokers       []string      `json:"brokers"`
		ConsumerGroup string        `json:"consumer_group"`
		PollTimeout   time.Duration `json:"poll_timeout_ms"`
		CommitEvery   time.Duration `json:"commit_every_seconds"`
	}

	// Etcd controls the coordination-service client (C3, C7).
	Etcd struct {
		Endpoints   []string      `json:"endpoints"`
		DialTimeout time.Duration `json:"dial_timeout_seconds"`
		SessionTTL  int           `json:"session_ttl_seconds"`
	}

	// SchedulerConfig tunes the scheduling engine (C6) and leader election (C7).
	SchedulerConfig struct {
		CheckIntervalSeconds    int    `json:"check_interval_seconds"`
		PullBatchSize           int    `json:"pull_batch_size"`
		ExecutorSelectionStrategy string `json:"executor_selection_strategy"`
		ReaperEnabled           bool   `json:"reaper_enabled"`
		ReaperGraceSeconds      int    `json:"reaper_grace_seconds"`
		BrokerGraceSeconds      int    `json:"broker_grace_seconds"`
		CleanupRetentionDays    int    `json:"cleanup_retention_days"`
	}

	// ExecutorConfig tunes the executor tier (C9, C10, C11).
	ExecutorConfig struct {
		Host                   string `json:"host"`
		Port                   int    `json:"port"`
		DefaultMaxLoad         int    `json:"default_max_load"`
		HeartbeatIntervalSeconds int  `json:"heartbeat_interval_seconds"`
		ScratchDir             string `json:"scratch_dir"`
	}
)

// LoadConfig loads configuration from bin/configs/<RUN_ENV>.json.
//
// Returns:
//   - *Config: parsed configuration instance also stored globally.
//   - error: returned when reading or decoding configuration fails.
//
// Behavior:
//   - Uses "local" when RUN_ENV is not provided.
//   - Applies APP_NAME override when present.
//   - Applies DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME/KAFKA_BROKERS
//     environment overrides on top of the file.
//
// Example:
//
//	cfg, err := app.LoadConfig()
//	if err != nil {
//		panic(err)
//	}
func LoadConfig() (*Config, error) {
	var (
		runEnv     string
		appName    string
		rootPath   string
		cfgContent []byte
		err        error
	)

	runEnv = os.Getenv(envKey)
	if runEnv == "" {
		runEnv = "local"
	}

	rootPath, err = os.Getwd()
	if err != nil {
		log.Fatalf("无法获取工作目录: %v", err)
	}

	// Build the environment-specific configuration file path.
	configFilePath := filepath.Join(rootPath, "bin", "configs", fmt.Sprintf("%s.json", runEnv))
	cfgContent, err = os.ReadFile(configFilePath)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(cfgContent, &config)
	if err != nil {
		return nil, err
	}

	appName = os.Getenv(nameKey)
	if appName != "" {
		config.System.Name = appName
	}

	config.System.Env = runEnv
	config.System.RootPath = rootPath
	config.System.EnvKey = envKey
	config.System.LangDir = filepath.Join(rootPath, "bin", "lang")

	applyEnvOverrides(config)
	applyDefaults(config)
	checkConfig(config)

	return config, nil
}

// applyEnvOverrides layers DB_*/KAFKA_BROKERS environment variables over the
// file-based configuration, per spec.md §6's recognized override set.
//
// Parameters:
//   - conf: configuration object mutated in place.
//
// Returns:
//   - None.
func applyEnvOverrides(conf *Config) {
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		conf.Kafka.Brokers = strings.Split(v, ",")
	}

	if len(conf.Databases) == 0 {
		return
	}

	primary := &conf.Databases[0]

	if v := os.Getenv("DB_HOST"); v != "" {
		primary.DbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		primary.DbPort = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		primary.DbUsername = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		primary.DbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		primary.DbName = v
	}
}

// applyDefaults fills zero-valued tuning knobs with spec.md's defaults.
//
// Parameters:
//   - conf: configuration object mutated in place.
//
// Returns:
//   - None.
func applyDefaults(conf *Config) {
	if conf.Scheduler.CheckIntervalSeconds <= 0 {
		conf.Scheduler.CheckIntervalSeconds = 5
	}
	if conf.Scheduler.PullBatchSize <= 0 {
		conf.Scheduler.PullBatchSize = 10
	}
	if conf.Scheduler.ExecutorSelectionStrategy == "" {
		conf.Scheduler.ExecutorSelectionStrategy = "RANDOM"
	}
	if conf.Scheduler.BrokerGraceSeconds <= 0 {
		conf.Scheduler.BrokerGraceSeconds = 30
	}
	if conf.Scheduler.CleanupRetentionDays <= 0 {
		conf.Scheduler.CleanupRetentionDays = 30
	}
	if conf.Executor.DefaultMaxLoad <= 0 {
		conf.Executor.DefaultMaxLoad = 10
	}
	if conf.Executor.HeartbeatIntervalSeconds <= 0 {
		conf.Executor.HeartbeatIntervalSeconds = 30
	}
	if conf.Executor.ScratchDir == "" {
		conf.Executor.ScratchDir = os.TempDir()
	}
	if conf.Etcd.DialTimeout <= 0 {
		conf.Etcd.DialTimeout = 5
	}
	conf.Etcd.DialTimeout *= time.Second
	if conf.Etcd.SessionTTL <= 0 {
		conf.Etcd.SessionTTL = 30
	}
	if conf.Kafka.PollTimeout <= 0 {
		conf.Kafka.PollTimeout = 100
	}
	conf.Kafka.PollTimeout *= time.Millisecond
	if conf.Kafka.CommitEvery <= 0 {
		conf.Kafka.CommitEvery = 5
	}
	conf.Kafka.CommitEvery *= time.Second
	if conf.System.NodeID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "node"
		}
		conf.System.NodeID = hostname + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	if conf.System.Role == "" {
		conf.System.Role = RoleScheduler
	}
	if conf.System.RateLimit == 0 {
		conf.System.RateLimit = 50
	}
}

// checkConfig validates required runtime configuration fields.
//
// Parameters:
//   - conf: configuration object to validate.
//
// Returns:
//   - None.
func checkConfig(conf *Config) {
	if conf.System.JwtSecret == "" {
		log.Panicf("JwtSecret Can not be null")
	}
}

// GetConfig returns the globally loaded configuration singleton.
//
// Returns:
//   - *Config: configuration instance loaded by LoadConfig.
func GetConfig() *Config {
	return config
}

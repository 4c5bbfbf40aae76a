package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap/zapcore"
)

// MySQLConfig configures the SQL store. DSN wins over the discrete fields.
type MySQLConfig struct {
	DSN         string            `yaml:"dsn"`
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	User        string            `yaml:"user"`
	Password    string            `yaml:"password"`
	Name        string            `yaml:"name"`
	Params      map[string]string `yaml:"params"`
	AutoMigrate bool              `yaml:"auto_migrate"`
}

// DSNValue returns the DSN, building one from the discrete fields when DSN
// is empty.
func (c MySQLConfig) DSNValue() (string, error) {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v, nil
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("store.mysql.name or store.mysql.dsn is required for the mysql driver")
	}
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultMySQLHost
	}
	port := c.Port
	if port == 0 {
		port = defaultMySQLPort
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid store.mysql.port %d, expected 1-65535", port)
	}

	cfg := mysqldriver.NewConfig()
	cfg.User = strings.TrimSpace(c.User)
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = name
	cfg.ParseTime = true
	if len(c.Params) > 0 {
		cfg.Params = make(map[string]string, len(c.Params))
		for key, value := range c.Params {
			if k, v := strings.TrimSpace(key), strings.TrimSpace(value); k != "" && v != "" {
				cfg.Params[k] = v
			}
		}
	}
	return cfg.FormatDSN(), nil
}

// ParseLevel maps a log level name onto zap's levels.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log_level %q: %w", name, err)
	}
	return level, nil
}

package api

import (
	"sync"
	"time"

	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/spf13/viper"
)

type Config struct {
	ServerConfig
	VotingConfig
	AuthConfig
	MembershipConfig
}

type ServerConfig struct {
	Port int
}

type VotingConfig struct {
	DurationSeconds    int
	DefaultTotalVoters int
	HeartbeatInterval  time.Duration
}

type AuthConfig struct {
	O2AuthSecret       string
	SessionTTL         time.Duration
	LocalAdminEmail    string
	LocalAdminPassword string
	CookieSecure       bool
}

type MembershipConfig struct {
	BaseURL     string
	CallTimeout time.Duration
	AuthMaxSkew time.Duration
}

var settingsOnce sync.Once

func ReadConfig() *Config {
	conf := &Config{
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 3001),
		},
		VotingConfig: VotingConfig{
			DurationSeconds:    getIntOrDefault("voting.durationSeconds", 60),
			DefaultTotalVoters: getIntOrDefault("voting.defaultTotalVoters", 70),
			HeartbeatInterval:  time.Duration(getIntOrDefault("voting.heartbeatSeconds", 25)) * time.Second,
		},
		AuthConfig: AuthConfig{
			O2AuthSecret:       getStringOrDefault("auth.o2authSecret", "development-secret"),
			SessionTTL:         time.Duration(getIntOrDefault("auth.sessionTtlMinutes", 30)) * time.Minute,
			LocalAdminEmail:    getStringOrDefault("auth.localAdminEmail", ""),
			LocalAdminPassword: getStringOrDefault("auth.localAdminPassword", ""),
			CookieSecure:       getBoolOrDefault("auth.cookieSecure", false),
		},
		MembershipConfig: MembershipConfig{
			BaseURL:     getStringOrDefault("membership.baseUrl", "http://localhost:8000"),
			CallTimeout: time.Duration(getIntOrDefault("membership.timeoutSeconds", 5)) * time.Second,
			AuthMaxSkew: time.Duration(getIntOrDefault("membership.authTtlSeconds", 60)) * time.Second,
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getBoolOrDefault(name string, def bool) bool {
	if viper.IsSet(name) {
		v := viper.GetBool(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

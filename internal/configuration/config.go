package configuration

import (
	"os"
	"time"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Configuration struct {
	Ilo        IloConfig        `json:"ilo"`
	Polling    PollingConfig    `json:"polling"`
	Command    CommandConfig    `json:"command"`
	Overrides  OverridesConfig  `json:"overrides"`
	History    HistoryConfig    `json:"history"`
	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("ilosync")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/ilosync/")
	}

	viper.SetEnvPrefix("ILOSYNC")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("ilo.port", 443)
	viper.SetDefault("ilo.sshPort", 22)
	viper.SetDefault("ilo.queryTimeout", 10*time.Second)
	viper.SetDefault("ilo.insecureSkipVerify", true)

	viper.SetDefault("polling.sensors.interval", 30*time.Second)
	viper.SetDefault("polling.sensors.ttl", 60*time.Second)
	viper.SetDefault("polling.fans.interval", 30*time.Second)
	viper.SetDefault("polling.fans.ttl", 60*time.Second)
	viper.SetDefault("polling.power.interval", 30*time.Second)
	viper.SetDefault("polling.power.ttl", 60*time.Second)
	viper.SetDefault("polling.pid.interval", 60*time.Second)
	viper.SetDefault("polling.pid.ttl", 120*time.Second)

	viper.SetDefault("command.timeout", 15*time.Second)
	viper.SetDefault("command.queueSize", 8)
	// observed firmware convergence times, not device guarantees
	viper.SetDefault("command.fanSettleDelay", 2*time.Second)
	viper.SetDefault("command.sensorSettleDelay", 1500*time.Millisecond)

	viper.SetDefault("overrides.dbPath", "/etc/ilosync/overrides.db")

	viper.SetDefault("history.dbPath", "/etc/ilosync/history.db")
	viper.SetDefault("history.retention", 7*24*time.Hour)
	viper.SetDefault("history.sweepInterval", 1*time.Hour)

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9400)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9401)
}

// DetectAndReadConfigFile reads the config file and returns its path.
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

// LoadConfig populates CurrentConfig from whatever viper has read.
func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}

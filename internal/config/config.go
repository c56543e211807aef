package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host    string `koanf:"host"`
	DataDir string `koanf:"datadir"`
	Google  Google `koanf:"google"`
	Sync    Sync   `koanf:"sync"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Sync struct {
	// WindowDays bounds the sync window to now ± WindowDays.
	WindowDays int `koanf:"windowdays"`
	// BatchSize is the partition size for destination insert/delete calls.
	BatchSize   int `koanf:"batchsize"`
	MaxAttempts int `koanf:"maxattempts"`
	// DefaultTimezone is used for feed sources when the user has not
	// configured one.
	DefaultTimezone string `koanf:"defaulttimezone"`
	// SkipOnEmptySource makes a failed source fetch skip the run instead of
	// diffing against an empty event set (which deletes everything synced).
	SkipOnEmptySource bool `koanf:"skiponemptysource"`
	// Schedule is a cron expression for the periodic all-users run.
	// Empty disables scheduling.
	Schedule string `koanf:"schedule"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host:    "http://localhost:3000",
		DataDir: "./data",
		Sync: Sync{
			WindowDays:      180,
			BatchSize:       50,
			MaxAttempts:     3,
			DefaultTimezone: "Europe/Berlin",
			Schedule:        "0 * * * *",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "CALSWEEP_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "CALSWEEP_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

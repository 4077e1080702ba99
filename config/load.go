package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

func loadDefault(defaultValues string, cfg interface{}) error {
	if _, err := toml.Decode(defaultValues, cfg); err != nil {
		return common.Wrap(err)
	}
	return nil
}

func loadFile(path string, cfg interface{}) error {
	bs, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return common.Wrap(err)
	}
	md, err := toml.Decode(string(bs), cfg)
	if err != nil {
		return common.Wrap(err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return common.Wrap(fmt.Errorf("unknown keys %v", undecoded))
	}
	return nil
}

// loadDotEnv exports the variables of the .env file at path, when it exists.
// Variables already set in the environment are kept.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return common.Wrap(godotenv.Load(path))
}

// loadEnv applies the env tags of cfg, a pointer to a struct, and of every
// nested section struct.  env only descends into non nil pointer fields.
func loadEnv(cfg interface{}) error {
	if err := env.Parse(cfg); err != nil {
		return common.Wrap(err)
	}
	v := reflect.ValueOf(cfg).Elem()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() != reflect.Struct || !field.CanSet() || v.Type().Field(i).Tag.Get("env") != "" {
			continue
		}
		if err := loadEnv(field.Addr().Interface()); err != nil {
			return common.Wrap(err)
		}
	}
	return nil
}

// LoadConfig loads defaultValues into cfg, then the TOML file at filePath
// when it's not empty, then the environment variables, including those of a
// .env file in the working directory.
func LoadConfig(filePath string, defaultValues string, cfg interface{}) error {
	if err := loadDefault(defaultValues, cfg); err != nil {
		return common.Wrap(fmt.Errorf("error loading default configuration: %w", err))
	}
	if filePath != "" {
		if err := loadFile(filePath, cfg); err != nil {
			return common.Wrap(fmt.Errorf("error loading configuration file: %w", err))
		}
	}
	if err := loadDotEnv(".env"); err != nil {
		return common.Wrap(fmt.Errorf("error loading .env file: %w", err))
	}
	if err := loadEnv(cfg); err != nil {
		return common.Wrap(fmt.Errorf("error loading environment variables: %w", err))
	}
	return nil
}

// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
)

// For main reading several files into one config

type FilesPaths []string

func (i *FilesPaths) String() string {
	return strings.Join(*i, ",")
}

func (i *FilesPaths) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func (i *FilesPaths) Type() string {
	return "stringArray"
}

// GetNodeConfigFromFiles layers config files (later files win) and then the process environment on top of base
func GetNodeConfigFromFiles(base mutableNodeConfig, configFiles FilesPaths) (mutableNodeConfig, error) {
	v := viper.New()

	for _, configFile := range configFiles {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, errors.Errorf("could not open config file: %s", err)
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(configFile)
		if filepath.Ext(configFile) == "" {
			fileViper.SetConfigType("json")
		}

		if err := fileViper.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}

		if err := v.MergeConfigMap(normalizedSettings(fileViper)); err != nil {
			return nil, errors.Wrapf(err, "failed to merge config file %s", configFile)
		}
	}

	cfg := base.Clone()
	if err := populateConfig(cfg, v); err != nil {
		return nil, err
	}

	return cfg, nil
}

func convertKeyName(key string) string {
	return strings.ToUpper(strings.Replace(key, "-", "_", -1))
}

// normalizedSettings spells every key the way the config does, files may use either COUNTER_CONTRACT_ADDRESS or counter-contract-address
func normalizedSettings(fileViper *viper.Viper) map[string]interface{} {
	settings := make(map[string]interface{})
	for _, fileKey := range fileViper.AllKeys() {
		settings[convertKeyName(fileKey)] = fileViper.Get(fileKey)
	}
	return settings
}

func populateConfig(cfg mutableNodeConfig, v *viper.Viper) error {
	for _, key := range cfg.Keys() {
		viperKey := strings.ToLower(key)

		if err := v.BindEnv(viperKey, key); err != nil {
			return errors.Wrapf(err, "failed to bind environment variable %s", key)
		}

		if !v.IsSet(viperKey) {
			continue
		}

		current, _ := cfg.Value(key)
		switch current.kind {
		case kindBool:
			cfg.SetBool(key, v.GetBool(viperKey))
		case kindUint32:
			cfg.SetUint32(key, v.GetUint32(viperKey))
		case kindDuration:
			cfg.SetDuration(key, v.GetDuration(viperKey))
		default:
			cfg.SetString(key, v.GetString(viperKey))
		}
	}

	return nil
}

/*
 * Copyright 2020 Guardtime, Inc.
 *
 * This file is part of the Guardtime client SDK.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES, CONDITIONS, OR OTHER LICENSES OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 * "Guardtime" and "KSI" are trademarks or registered trademarks of
 * Guardtime, Inc., and no license to trademarks is granted; Guardtime
 * reserves and retains all trademark rights.
 */

// Package config loads the client configuration from a TOML file.
//
// Example:
//
//	protocol  = "current"
//	log_file  = "/var/log/ksipdu.log"
//	log_level = "info"
//	timeout   = "10s"
//
//	[aggregator]
//	url   = "http://signingservice.example.com:8080/gt-signingservice"
//	login = "anon"
//	key   = "anon"
//	hmac  = "SHA-256"
//
//	[extender]
//	url   = "tcp://extendingservice.example.com:8010"
//	login = "anon"
//	key   = "anon"
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/log"
	"github.com/guardtime/ksipdu/pdu"
)

// Default values of the optional settings.
const (
	DefaultProtocol = "current"
	DefaultLogLevel = "none"
	DefaultTimeout  = 10 * time.Second
	DefaultHmac     = "SHA-256"
)

// Service is the endpoint and the credentials of one KSI service.
type Service struct {
	URL   string `toml:"url"`
	Login string `toml:"login"`
	Key   string `toml:"key"`
	Hmac  string `toml:"hmac"`
}

// Configuration is the client configuration.
type Configuration struct {
	Protocol   string
	LogFile    string
	LogLevel   string
	Timeout    time.Duration
	Aggregator Service
	Extender   Service
}

type fileConfig struct {
	Protocol   string  `toml:"protocol"`
	LogFile    string  `toml:"log_file"`
	LogLevel   string  `toml:"log_level"`
	Timeout    string  `toml:"timeout"`
	Aggregator Service `toml:"aggregator"`
	Extender   Service `toml:"extender"`
}

// Default returns the configuration with all optional settings at their defaults.
func Default() *Configuration {
	return &Configuration{
		Protocol:   DefaultProtocol,
		LogLevel:   DefaultLogLevel,
		Timeout:    DefaultTimeout,
		Aggregator: Service{Hmac: DefaultHmac},
		Extender:   Service{Hmac: DefaultHmac},
	}
}

// New loads the configuration file. Settings absent from the file keep their default values.
func New(path string) (*Configuration, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.New(errors.KsiIoError).SetExtError(err).
			AppendMessage(fmt.Sprintf("Unable to load configuration file: %s.", path))
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		log.Warning(fmt.Sprintf("Unknown configuration keys in %s: %v", path, undecoded))
	}

	if meta.IsDefined("protocol") {
		cfg.Protocol = strings.TrimSpace(raw.Protocol)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return nil, errors.New(errors.KsiInvalidFormatError).SetExtError(err).
				AppendMessage(fmt.Sprintf("Unable to parse timeout: %q.", raw.Timeout))
		}
		cfg.Timeout = d
	}
	mergeService(meta, "aggregator", &cfg.Aggregator, raw.Aggregator)
	mergeService(meta, "extender", &cfg.Extender, raw.Extender)

	return cfg, nil
}

func mergeService(meta toml.MetaData, section string, dst *Service, src Service) {
	if meta.IsDefined(section, "url") {
		dst.URL = strings.TrimSpace(src.URL)
	}
	if meta.IsDefined(section, "login") {
		dst.Login = src.Login
	}
	if meta.IsDefined(section, "key") {
		dst.Key = src.Key
	}
	if meta.IsDefined(section, "hmac") {
		dst.Hmac = strings.TrimSpace(src.Hmac)
	}
}

// Version returns the configured protocol generation.
func (c *Configuration) Version() (*pdu.Version, error) {
	if c == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	return pdu.VersionByName(c.Protocol)
}

// Priority returns the configured log priority.
func (c *Configuration) Priority() (log.Priority, error) {
	if c == nil {
		return log.NONE, errors.New(errors.KsiInvalidArgumentError)
	}
	return log.ParsePriority(c.LogLevel)
}

// Credentials returns the service credentials.
func (s *Service) Credentials() (*pdu.StaticCredentials, error) {
	if s == nil {
		return nil, errors.New(errors.KsiInvalidArgumentError)
	}
	name := s.Hmac
	if name == "" {
		name = DefaultHmac
	}
	alg, err := hash.ByName(name)
	if err != nil {
		return nil, err
	}
	return pdu.NewCredentials(s.Login, []byte(s.Key), alg)
}

// Validate checks that the service endpoint and the login are set.
func (s *Service) Validate() error {
	if s == nil {
		return errors.New(errors.KsiInvalidArgumentError)
	}
	if s.URL == "" {
		return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Service URL is not configured.")
	}
	if s.Login == "" {
		return errors.New(errors.KsiInvalidArgumentError).AppendMessage("Service login is not configured.")
	}
	return nil
}

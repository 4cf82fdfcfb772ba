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

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/guardtime/ksipdu/config"
	"github.com/guardtime/ksipdu/ident"
	"github.com/guardtime/ksipdu/log"
	"github.com/guardtime/ksipdu/pdu"
)

// Log file rotation settings.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

type globalFlags struct {
	configFile string
	protocol   string
	logFile    string
	logLevel   string
	timeout    time.Duration
	login      string
	key        string
}

// app is the state shared by the commands of one invocation.
type app struct {
	root  *cobra.Command
	flags globalFlags

	cfg     *config.Configuration
	version *pdu.Version
	ids     *ident.Provider
	closers []func() error
}

func newApp() *app {
	a := &app{}
	a.root = &cobra.Command{
		Use:   "ksipdu",
		Short: "KSI aggregation and extension PDU tool",
		Long: `ksipdu builds, reads and exchanges KSI aggregation and extension protocol data units.

Offline commands (aggr-req, ext-req, read-aggr, read-ext) only need the service credentials, online
commands (sign, extend, config) also need the service URL. Both are read from the configuration file
and can be overridden with the global flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := a.root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "TOML configuration file")
	pf.StringVar(&a.flags.protocol, "protocol", config.DefaultProtocol, "protocol generation: legacy|current")
	pf.StringVar(&a.flags.logFile, "log-file", "", "log file, rotated when it grows large")
	pf.StringVar(&a.flags.logLevel, "log-level", config.DefaultLogLevel, "log level: debug|info|notice|warning|error|none")
	pf.DurationVar(&a.flags.timeout, "timeout", config.DefaultTimeout, "network request timeout")
	pf.StringVar(&a.flags.login, "login", "", "login id of both services")
	pf.StringVar(&a.flags.key, "key", "", "HMAC key of both services")

	a.root.AddCommand(
		a.aggrReqCmd(),
		a.extReqCmd(),
		a.readAggrCmd(),
		a.readExtCmd(),
		a.signCmd(),
		a.extendCmd(),
		a.configCmd(),
	)
	return a
}

// setup loads the configuration, applies the flag overrides and initializes the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.flags.configFile != "" {
		c, err := config.New(a.flags.configFile)
		if err != nil {
			return err
		}
		cfg = c
	}

	fl := cmd.Flags()
	if fl.Changed("protocol") {
		cfg.Protocol = a.flags.protocol
	}
	if fl.Changed("log-file") {
		cfg.LogFile = a.flags.logFile
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if fl.Changed("timeout") {
		cfg.Timeout = a.flags.timeout
	}
	if fl.Changed("login") {
		cfg.Aggregator.Login, cfg.Extender.Login = a.flags.login, a.flags.login
	}
	if fl.Changed("key") {
		cfg.Aggregator.Key, cfg.Extender.Key = a.flags.key, a.flags.key
	}

	v, err := cfg.Version()
	if err != nil {
		return err
	}
	if err := a.initLogger(cfg, cmd.ErrOrStderr()); err != nil {
		return err
	}
	ids, err := ident.New()
	if err != nil {
		return err
	}

	a.cfg, a.version, a.ids = cfg, v, ids
	log.Debug(fmt.Sprintf("ksipdu %s: protocol %s, instance %d", cmd.Name(), v, ids.InstanceID()))
	return nil
}

func (a *app) initLogger(cfg *config.Configuration, stderr io.Writer) error {
	prio, err := cfg.Priority()
	if err != nil {
		return err
	}
	if prio == log.NONE {
		log.SetLogger(nil)
		return nil
	}

	w := stderr
	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		a.closers = append(a.closers, rotated.Close)
		w = rotated
	}
	logger, err := log.New(prio, w)
	if err != nil {
		return err
	}
	log.SetLogger(logger)
	a.closers = append(a.closers, func() error {
		log.SetLogger(nil)
		return logger.Sync()
	})
	return nil
}

// close releases the logger in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

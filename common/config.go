/*
 * Copyright 2017-2022 Provide Technologies Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	logger "github.com/kthomas/go-logger"
)

var (
	// Log is the configured logger
	Log *logger.Logger

	// DispatchNATSNotifications is true when lifecycle events should be published to NATS
	DispatchNATSNotifications bool
)

func init() {
	godotenv.Load()

	requireLogger()

	DispatchNATSNotifications = strings.ToLower(os.Getenv("NATS_NOTIFICATIONS")) == "true"
}

func requireLogger() {
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		lvl = "INFO"
	}

	Log = logger.NewLogger("counter", lvl, syslogEndpoint())
}

func syslogEndpoint() *string {
	if os.Getenv("SYSLOG_ENDPOINT") != "" {
		endpt := os.Getenv("SYSLOG_ENDPOINT")
		return &endpt
	}
	return nil
}

// ConfigureLogger replaces Log with a logger at lvl; when path is non-nil its parent
// directory is created and output is appended to the file at path instead of stderr.
// The returned func restores the previous logger and closes the file.
func ConfigureLogger(lvl string, path *string) (func(), error) {
	previous := Log
	if path == nil {
		Log = logger.NewLogger("counter", lvl, syslogEndpoint())
		return func() { Log = previous }, nil
	}

	if err := os.MkdirAll(filepath.Dir(*path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s; %s", *path, err.Error())
	}
	file, err := os.OpenFile(*path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s; %s", *path, err.Error())
	}

	// go-logger writes to whatever os.Stderr is when the logger is built
	stderr := os.Stderr
	os.Stderr = file
	Log = logger.NewLogger("counter", lvl, syslogEndpoint())
	os.Stderr = stderr

	return func() {
		Log = previous
		file.Close()
	}, nil
}

// EnvOrDefault returns the value of the named environment variable, or the given default when unset
func EnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

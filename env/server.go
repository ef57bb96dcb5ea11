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

package env

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type serverEnvironment struct{}

type serverPath struct{}

// Server returns the environment backed by the local filesystem
func Server() Environment {
	return serverEnvironment{}
}

func (serverEnvironment) IsServer() bool {
	return true
}

func (serverEnvironment) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (serverEnvironment) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644)
}

func (serverEnvironment) FileExists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (e serverEnvironment) ExistsSync(name string) bool {
	exists, _ := e.FileExists(name)
	return exists
}

func (serverEnvironment) Mkdir(name string, recursive bool) error {
	if recursive {
		return os.MkdirAll(name, 0o755)
	}
	return os.Mkdir(name, 0o755)
}

func (serverEnvironment) CreateReadStream(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (serverEnvironment) CreateWriteStream(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func (serverEnvironment) Path() PathUtils {
	return serverPath{}
}

func (serverPath) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (serverPath) Resolve(elem ...string) string {
	p, err := filepath.Abs(filepath.Join(elem...))
	if err != nil {
		return filepath.Join(elem...)
	}
	return p
}

func (serverPath) Dirname(p string) string {
	return filepath.Dir(p)
}

func (serverPath) Basename(p string) string {
	return filepath.Base(p)
}

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
	"runtime"
)

// ErrUnsupported is returned by every filesystem operation attempted from a browser runtime
var ErrUnsupported = errors.New("file system operations are not supported in the browser")

// IsServerEnvironment is resolved once from the compilation target; js/wasm builds run in a browser
var IsServerEnvironment = runtime.GOOS != "js"

// PathUtils provides path manipulation for the active environment
type PathUtils interface {
	Join(elem ...string) string
	Resolve(elem ...string) string
	Dirname(p string) string
	Basename(p string) string
}

// Environment is the filesystem facade handed to every component that touches local files
type Environment interface {
	IsServer() bool

	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error

	// FileExists reports existence and fails with ErrUnsupported in a browser
	FileExists(name string) (bool, error)
	// ExistsSync reports existence and returns false in a browser
	ExistsSync(name string) bool

	Mkdir(name string, recursive bool) error
	CreateReadStream(name string) (io.ReadCloser, error)
	CreateWriteStream(name string) (io.WriteCloser, error)

	Path() PathUtils
}

// Detect returns the environment matching the running binary
func Detect() Environment {
	if IsServerEnvironment {
		return Server()
	}
	return Browser()
}

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
	"io"
	"path"
	"strings"

	"github.com/provideplatform/counter/common"
)

type browserEnvironment struct{}

type browserPath struct{}

// Browser returns the environment for runtimes without filesystem access;
// every filesystem call fails closed
func Browser() Environment {
	return browserEnvironment{}
}

func (browserEnvironment) IsServer() bool {
	return false
}

func (browserEnvironment) ReadFile(name string) ([]byte, error) {
	common.Log.Warningf("failed to read %s; %s", name, ErrUnsupported.Error())
	return nil, ErrUnsupported
}

func (browserEnvironment) WriteFile(name string, data []byte) error {
	common.Log.Warningf("failed to write %s; %s", name, ErrUnsupported.Error())
	return ErrUnsupported
}

func (browserEnvironment) FileExists(name string) (bool, error) {
	return false, ErrUnsupported
}

func (browserEnvironment) ExistsSync(name string) bool {
	return false
}

func (browserEnvironment) Mkdir(name string, recursive bool) error {
	return ErrUnsupported
}

func (browserEnvironment) CreateReadStream(name string) (io.ReadCloser, error) {
	return nil, ErrUnsupported
}

func (browserEnvironment) CreateWriteStream(name string) (io.WriteCloser, error) {
	return nil, ErrUnsupported
}

func (browserEnvironment) Path() PathUtils {
	return browserPath{}
}

func (browserPath) Join(elem ...string) string {
	return path.Join(elem...)
}

// Resolve joins from the right-most absolute element; relative results are rooted at "/"
func (browserPath) Resolve(elem ...string) string {
	start := 0
	for i, e := range elem {
		if strings.HasPrefix(e, "/") {
			start = i
		}
	}
	p := path.Join(elem[start:]...)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func (browserPath) Dirname(p string) string {
	return path.Dir(p)
}

func (browserPath) Basename(p string) string {
	return path.Base(p)
}

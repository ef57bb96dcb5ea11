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

package config

import (
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/env"
	"golang.org/x/mod/modfile"
)

// ModulePath is the module path a go.mod must declare to mark the workspace root
const ModulePath = "github.com/provideplatform/counter"

// FindWorkspaceRoot walks upward from startDir to the first directory that holds a go.work,
// a go.mod declaring ModulePath, or the contract artifacts directory; startDir is returned
// when no ancestor qualifies
func FindWorkspaceRoot(e env.Environment, startDir string) string {
	if !e.IsServer() {
		return browserWorkspaceRoot
	}

	p := e.Path()
	dir := p.Resolve(startDir)
	for {
		if isWorkspaceRoot(e, dir) {
			common.Log.Tracef("resolved workspace root: %s", dir)
			return dir
		}

		parent := p.Dirname(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	common.Log.Debugf("no workspace root found above %s; falling back to start directory", startDir)
	return startDir
}

func isWorkspaceRoot(e env.Environment, dir string) bool {
	p := e.Path()

	if e.ExistsSync(p.Join(dir, "go.work")) {
		return true
	}

	manifest := p.Join(dir, "go.mod")
	if e.ExistsSync(manifest) {
		data, err := e.ReadFile(manifest)
		if err != nil {
			common.Log.Warningf("failed to read manifest %s; %s", manifest, err.Error())
		} else if modfile.ModulePath(data) == ModulePath {
			return true
		}
	}

	return e.ExistsSync(p.Join(dir, ContractArtifactsDir))
}

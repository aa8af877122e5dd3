// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package testboot

import (
	"os"
	"strconv"
	"testing"
)

const (
	disableEnvName       = "TESTBOOT_DISABLE_TESTING"
	githubActionsEnvName = "GITHUB_ACTIONS"
)

// Detector reports whether the current process runs inside an
// execution context in which the test session must not run.
type Detector func() bool

func GithubActions() bool {
	return os.Getenv(githubActionsEnvName) == "true"
}

func Disabled() bool {
	env := os.Getenv(disableEnvName)

	disabled, _ := strconv.ParseBool(env)

	return disabled
}

func SkipDisabled(t *testing.T) {
	if Disabled() {
		t.Skipf("test skipped because %s is SET to TRUE", disableEnvName)
	}
}

func SkipGithubActions(t *testing.T) {
	if GithubActions() {
		t.Skipf("test %s skipped inside the GitHub Actions runner", t.Name())
	}
}

// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package testboot

import (
	"testing"
)

func Test_SkipDisabled(t *testing.T) {
	t.Setenv(disableEnvName, "true")

	SkipDisabled(t)

	t.Fatal("expected test is skipped")
}

func Test_SkipGithubActions(t *testing.T) {
	t.Setenv(githubActionsEnvName, "true")

	SkipGithubActions(t)

	t.Fatal("expected test is skipped")
}

func Test_GithubActions(t *testing.T) {
	t.Setenv(githubActionsEnvName, "")

	if GithubActions() {
		t.Fatal("expected false for empty env")
	}

	t.Setenv(githubActionsEnvName, "1")

	if GithubActions() {
		t.Fatal("expected false, github actions sets the literal string true")
	}

	t.Setenv(githubActionsEnvName, "true")

	if !GithubActions() {
		t.Fatal("expected true")
	}
}

func Test_Disabled(t *testing.T) {
	t.Setenv(disableEnvName, "")

	if Disabled() {
		t.Fatal("expected false for empty env")
	}

	t.Setenv(disableEnvName, "not-a-bool")

	if Disabled() {
		t.Fatal("expected false for unparsable env")
	}

	t.Setenv(disableEnvName, "TRUE")

	if !Disabled() {
		t.Fatal("expected true")
	}
}

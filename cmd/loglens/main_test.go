package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/loglens/loglens/internal/model"
)

// withHome points os.UserHomeDir (via HOME) at a fresh temp directory for
// the duration of the test, so openRegistry/openStore never touch the
// real user's ~/.loglens.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitLinkListUnlinkRoundTrip(t *testing.T) {
	withHome(t)
	root := t.TempDir()

	if _, err := runCmd(t, "init", "--path", root, "--name", "demo"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, err := runCmd(t, "list-projects")
	if err != nil {
		t.Fatalf("list-projects: %v", err)
	}
	var projects []model.LinkedProject
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "demo" {
		t.Fatalf("expected one project named demo, got %+v", projects)
	}

	if _, err := runCmd(t, "unlink", "--path", root); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	out, err = runCmd(t, "list-projects")
	if err != nil {
		t.Fatalf("list-projects after unlink: %v", err)
	}
	projects = nil
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected no projects after unlink, got %+v", projects)
	}

	if _, err := os.Stat(filepath.Join(root, ".loglens", "metadata.json")); err != nil {
		t.Fatalf("unlink must preserve on-disk metadata: %v", err)
	}

	if _, err := runCmd(t, "link", "--path", root); err != nil {
		t.Fatalf("re-link: %v", err)
	}
}

func TestInitOnAlreadyLinkedPathFails(t *testing.T) {
	withHome(t)
	root := t.TempDir()

	if _, err := runCmd(t, "init", "--path", root); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCmd(t, "init", "--path", root); err == nil {
		t.Fatal("expected conflict re-initializing an already-linked path")
	}
}

func TestValidateLinksReportsAndRepairsMissingRoot(t *testing.T) {
	withHome(t)
	root := t.TempDir()
	if _, err := runCmd(t, "init", "--path", root); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	out, err := runCmd(t, "validate-links")
	if err != nil {
		t.Fatalf("validate-links: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("MissingRoot")) {
		t.Fatalf("expected MissingRoot issue, got %s", out)
	}

	if _, err := runCmd(t, "validate-links", "--repair"); err != nil {
		t.Fatalf("validate-links --repair: %v", err)
	}
	out, err = runCmd(t, "list-projects")
	if err != nil {
		t.Fatalf("list-projects: %v", err)
	}
	var projects []model.LinkedProject
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected repair to remove the broken entry, got %+v", projects)
	}
}

func TestLinkMissingPathFails(t *testing.T) {
	withHome(t)
	if _, err := runCmd(t, "link", "--path", filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Fatal("expected error linking a nonexistent path")
	}
}

func TestParseProjectType(t *testing.T) {
	cases := map[string]model.ProjectType{
		"cli":     model.ProjectTypeCLI,
		"web":     model.ProjectTypeWeb,
		"unknown": model.ProjectTypeUnknown,
		"bogus":   model.ProjectTypeUnknown,
		"":        model.ProjectTypeUnknown,
	}
	for in, want := range cases {
		if got := parseProjectType(in); got != want {
			t.Errorf("parseProjectType(%q) = %q, want %q", in, got, want)
		}
	}
}

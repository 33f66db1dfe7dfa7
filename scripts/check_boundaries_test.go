package main

import (
	"os"
	"path/filepath"
	"testing"
)

const testModulePrefix = "pollchain/contexts/governance/poll-ledger"

func writeSource(t *testing.T, imports string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.go")
	source := "package sample\n\nimport (\n" + imports + ")\n"
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestDomainAllowsHashingLibraries(t *testing.T) {
	path := writeSource(t, "\t\"encoding/binary\"\n\t\"github.com/ethereum/go-ethereum/crypto\"\n")
	if got := validateFile(path, path, "domain", testModulePrefix); len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

func TestDomainRejectsAdaptersAndInfrastructure(t *testing.T) {
	path := writeSource(t, "\t\""+testModulePrefix+"/adapters/memory\"\n\t\"pollchain/internal/platform/db\"\n")
	got := validateFile(path, path, "domain", testModulePrefix)
	rules := map[string]bool{}
	for _, v := range got {
		rules[v.Rule] = true
	}
	for _, want := range []string{
		"domain must not import adapters",
		"domain must not import runtime infrastructure",
		"domain import is outside explicit allowlist",
	} {
		if !rules[want] {
			t.Fatalf("missing rule %q in %+v", want, got)
		}
	}
}

func TestApplicationAllowsSharedEventsAndTracing(t *testing.T) {
	path := writeSource(t, "\t\"pollchain/internal/shared/events\"\n\t\"go.opentelemetry.io/otel/trace\"\n\t\""+testModulePrefix+"/ports\"\n")
	if got := validateFile(path, path, "application", testModulePrefix); len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

func TestCrossContextImportRejected(t *testing.T) {
	path := writeSource(t, "\t\"pollchain/contexts/other/service/domain\"\n")
	got := validateFile(path, path, "adapters", testModulePrefix)
	if len(got) != 1 || got[0].Rule != "cross-module imports are forbidden" {
		t.Fatalf("expected cross-module violation, got %+v", got)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/config"
	"github.com/bureau-foundation/agentplatform/lib/trace"
)

const simulationConfig = `
engine:
  kind: realtime
  start_ms: 0
  duration: 10s
containers:
  - name: agents
    period: 1s
  - name: gateway
    period: 250ms
`

func loadTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platform.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return cfg
}

func TestSimulateIsReproducible(t *testing.T) {
	cfg := loadTestConfig(t, simulationConfig)
	directory := t.TempDir()

	var outputs []string
	for _, name := range []string{"first.trace", "second.trace"} {
		var stdout bytes.Buffer
		flags := simulateFlags{tracePath: filepath.Join(directory, name), compression: "lz4"}
		if err := simulate(context.Background(), &stdout, cfg, flags, discardLogger()); err != nil {
			t.Fatalf("simulate: %v", err)
		}
		outputs = append(outputs, stdout.String())
	}

	if outputs[0] != outputs[1] {
		t.Fatalf("simulation output differs:\n%s\n%s", outputs[0], outputs[1])
	}
	if !strings.Contains(outputs[0], "dispatches: 50\n") {
		t.Fatalf("output %q, want 50 dispatches (10 agents + 40 gateway)", outputs[0])
	}

	var stdout bytes.Buffer
	err := verifyTraces(&stdout, filepath.Join(directory, "first.trace"), filepath.Join(directory, "second.trace"))
	if err != nil {
		t.Fatalf("verifyTraces: %v\n%s", err, stdout.String())
	}
	if !strings.HasPrefix(stdout.String(), "identical: 50 dispatches") {
		t.Fatalf("verify output = %q", stdout.String())
	}
}

func TestSimulateOrdersEqualTriggersByRegistration(t *testing.T) {
	cfg := loadTestConfig(t, simulationConfig)
	path := filepath.Join(t.TempDir(), "run.trace")
	if err := simulate(context.Background(), &bytes.Buffer{}, cfg, simulateFlags{tracePath: path}, discardLogger()); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	recorded, err := trace.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var atOneSecond []string
	for _, record := range recorded.Records {
		if record.TriggerNanos == 1_000_000_000 {
			atOneSecond = append(atOneSecond, record.Name)
		}
		if record.ClockNanos != record.TriggerNanos {
			t.Fatalf("record %v ran off its trigger time", record)
		}
	}
	// agents scheduled its 1s beat at Start; gateway only reached 1s
	// from its 750ms beat.
	if len(atOneSecond) != 2 || atOneSecond[0] != "agents" || atOneSecond[1] != "gateway" {
		t.Fatalf("dispatches at 1s = %v, want [agents gateway]", atOneSecond)
	}
}

func TestVerifyTracesReportsDivergence(t *testing.T) {
	directory := t.TempDir()
	short := filepath.Join(directory, "short.trace")
	long := filepath.Join(directory, "long.trace")

	cfg := loadTestConfig(t, simulationConfig)
	if err := simulate(context.Background(), &bytes.Buffer{}, cfg, simulateFlags{until: 5000, tracePath: short}, discardLogger()); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if err := simulate(context.Background(), &bytes.Buffer{}, cfg, simulateFlags{tracePath: long}, discardLogger()); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	var stdout bytes.Buffer
	err := verifyTraces(&stdout, short, long)
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Fatalf("verifyTraces = %v, want exit code 1", err)
	}
	if !strings.Contains(stdout.String(), "first difference at record 25") {
		t.Fatalf("verify output = %q, want divergence at record 25", stdout.String())
	}
}

func TestSimulateRejectsUntilBeforeStart(t *testing.T) {
	cfg := loadTestConfig(t, strings.Replace(simulationConfig, "start_ms: 0", "start_ms: 2000", 1))
	err := simulate(context.Background(), &bytes.Buffer{}, cfg, simulateFlags{until: 1000}, discardLogger())
	if !errors.Is(err, cli.ErrUsage) {
		t.Fatalf("simulate = %v, want ErrUsage", err)
	}
}

func TestDumpTrace(t *testing.T) {
	cfg := loadTestConfig(t, simulationConfig)
	path := filepath.Join(t.TempDir(), "run.trace")
	if err := simulate(context.Background(), &bytes.Buffer{}, cfg, simulateFlags{until: 1000, tracePath: path}, discardLogger()); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	var text bytes.Buffer
	if err := dumpTrace(&text, path, false); err != nil {
		t.Fatalf("dumpTrace: %v", err)
	}
	if !strings.HasPrefix(text.String(), "engine simulated, start 0ms") || !strings.Contains(text.String(), `"gateway"`) {
		t.Fatalf("dump output = %q", text.String())
	}

	var diagnostic bytes.Buffer
	if err := dumpTrace(&diagnostic, path, true); err != nil {
		t.Fatalf("dumpTrace --cbor: %v", err)
	}
	if !strings.Contains(diagnostic.String(), `"records"`) {
		t.Fatalf("diagnostic output = %q, want a records field", diagnostic.String())
	}
}

type staticResolver struct{}

func (staticResolver) InterfaceByName(name string) (*net.Interface, error) {
	if name != "eth0" {
		return nil, errors.New("no such network interface")
	}
	return &net.Interface{Name: name}, nil
}

func (staticResolver) InterfaceAddrs(*net.Interface) ([]net.Addr, error) {
	return []net.Addr{&net.IPNet{IP: net.ParseIP("172.16.0.9"), Mask: net.CIDRMask(16, 32)}}, nil
}

func (staticResolver) Hostname() (string, error) { return "node", nil }

func (staticResolver) LookupHost(context.Context, string) ([]string, error) {
	return []string{"10.0.0.5"}, nil
}

func TestPrintHostname(t *testing.T) {
	tests := []struct {
		name     string
		iface    string
		override string
		want     string
	}{
		{"resolved", "", "", "10.0.0.5"},
		{"interface", "eth0", "", "172.16.0.9"},
		{"override", "eth0", "agents.example.org", "agents.example.org"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stdout bytes.Buffer
			if err := printHostname(context.Background(), &stdout, staticResolver{}, test.iface, test.override); err != nil {
				t.Fatalf("printHostname: %v", err)
			}
			if got := strings.TrimSpace(stdout.String()); got != test.want {
				t.Fatalf("hostname = %q, want %q", got, test.want)
			}
		})
	}

	err := printHostname(context.Background(), &bytes.Buffer{}, staticResolver{}, "wlan7", "")
	if err == nil || !strings.Contains(err.Error(), "network interface not found") {
		t.Fatalf("printHostname(wlan7) = %v, want interface not found", err)
	}
}

func TestRootVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := root(&stdout, &stderr).Execute([]string{"version"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout.String(), "Build: (unknown)") {
		t.Fatalf("version output = %q, want the unknown build banner", stdout.String())
	}
}

func TestRootUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := root(&stdout, &stderr).Execute([]string{"simulat"})
	if !errors.Is(err, cli.ErrUsage) {
		t.Fatalf("Execute = %v, want ErrUsage", err)
	}
}

func TestAssembleAppliesNetworkConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Network.Hostname = "agents.example.org"
	cfg.Network.Port = 4242
	cfg.Engine.Kind = config.EngineSimulated

	a, err := assemble(cfg, discardLogger())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	defer a.platform.Shutdown(context.Background())

	if port, err := a.platform.Port(); err != nil || port != 4242 {
		t.Fatalf("Port = %d, %v; want 4242", port, err)
	}
	if hostname, err := a.platform.Hostname(context.Background()); err != nil || hostname != "agents.example.org" {
		t.Fatalf("Hostname = %q, %v; want agents.example.org", hostname, err)
	}
	if a.simulated == nil {
		t.Fatal("simulated engine not built")
	}
}

func TestAssembleWithoutRemote(t *testing.T) {
	cfg := config.Default()
	cfg.Network.Remote = false
	a, err := assemble(cfg, discardLogger())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	defer a.platform.Shutdown(context.Background())
	if _, err := a.platform.Port(); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("Port = %v, want errors.ErrUnsupported", err)
	}
}

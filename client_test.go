package tokengate

import (
	"strings"
	"testing"
)

func TestValidate_NoAddrs(t *testing.T) {
	cfg := &clientConfig{pools: []poolSpec{{name: "flash", providerLimit: 1_000_000}}}

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error without database address")
	}
	if !strings.Contains(err.Error(), "database address required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_NoPools(t *testing.T) {
	cfg := &clientConfig{addrs: []string{"localhost:6379"}}

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error without pools")
	}
	if !strings.Contains(err.Error(), "at least one pool") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DuplicatePool(t *testing.T) {
	cfg := &clientConfig{
		addrs: []string{"localhost:6379"},
		pools: []poolSpec{
			{name: "flash", providerLimit: 1_000_000},
			{name: "flash", providerLimit: 500_000},
		},
	}

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for duplicate pool")
	}
}

func TestValidate_LimitWithinBuffer(t *testing.T) {
	cfg := &clientConfig{
		addrs: []string{"localhost:6379"},
		pools: []poolSpec{{name: "lite", providerLimit: 50_000}},
	}

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for limit within the safety buffer")
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := &clientConfig{
		addrs: []string{"localhost:6379"},
		pools: []poolSpec{
			{name: "flash", providerLimit: 1_000_000},
			{name: "lite", providerLimit: 1_000_000},
		},
	}

	if err := validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOptions_Applied(t *testing.T) {
	cfg := &clientConfig{keyPrefix: "tokengate:"}
	for _, o := range []Option{
		WithValkey("valkey:6379", "pw"),
		WithAuth("svc"),
		WithDB(2),
		WithKeyPrefix("custom:"),
		WithPool("flash", 1_000_000),
	} {
		o(cfg)
	}

	if len(cfg.addrs) != 1 || cfg.addrs[0] != "valkey:6379" {
		t.Errorf("addrs: got %v", cfg.addrs)
	}
	if cfg.password != "pw" || cfg.username != "svc" || cfg.db != 2 {
		t.Errorf("auth/db: got %+v", cfg)
	}
	if cfg.keyPrefix != "custom:" {
		t.Errorf("keyPrefix: got %q", cfg.keyPrefix)
	}
	if len(cfg.pools) != 1 || cfg.pools[0].name != "flash" {
		t.Errorf("pools: got %+v", cfg.pools)
	}
}

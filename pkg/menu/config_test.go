package menu

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	key := writeFile(t, dir, "id_ops", "")
	p := writeFile(t, dir, "config.json", `{
  "networks": [
    {
      "name": "Management",
      "cidr": "10.0.10.0/24",
      "servers": [
        {
          "ip": "10.0.10.5",
          "description": "Jump host",
          "port": 2222,
          "users": [
            {"username": "ops", "description": "Operations", "key_path": "`+key+`"},
            {"username": "root"}
          ]
        },
        {"ip": "10.0.10.9", "username": "admin"}
      ]
    }
  ]
}`)

	cfg, path, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if path != p {
		t.Fatalf("expected path %q, got %q", p, path)
	}
	if len(cfg.Networks) != 1 {
		t.Fatalf("expected 1 network, got %d", len(cfg.Networks))
	}

	n := cfg.Networks[0]
	if n.Name != "Management" || n.CIDR != "10.0.10.0/24" {
		t.Fatalf("unexpected network fields: %+v", n)
	}
	if len(n.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(n.Servers))
	}

	s0 := n.Servers[0]
	if s0.IP != "10.0.10.5" || s0.Port != 2222 {
		t.Fatalf("unexpected first server: %+v", s0)
	}
	if s0.Credentials.Kind() != CredUsers {
		t.Fatalf("expected user-list credentials on first server")
	}
	users := s0.Credentials.List()
	if len(users) != 2 || users[0].Username != "ops" || users[1].Username != "root" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if users[0].KeyPath != key || users[0].Description != "Operations" {
		t.Fatalf("unexpected first user: %+v", users[0])
	}

	s1 := n.Servers[1]
	if s1.Credentials.Kind() != CredSingle {
		t.Fatalf("expected single-user credentials on second server")
	}
	if u := s1.Credentials.Single(); u.Username != "admin" || u.KeyPath != "" {
		t.Fatalf("unexpected single user: %+v", u)
	}
	if s1.Port != 0 {
		t.Fatalf("expected absent port to stay 0, got %d", s1.Port)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", `networks:
  - name: Lab
    cidr: 192.168.56.0/24
    servers:
      - ip: 192.168.56.10
        description: Build box
        username: builder
        port: 8022
`)

	cfg, path, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if path != p {
		t.Fatalf("expected path %q, got %q", p, path)
	}
	s := cfg.Networks[0].Servers[0]
	if s.IP != "192.168.56.10" || s.Port != 8022 {
		t.Fatalf("unexpected server: %+v", s)
	}
	if s.Credentials.Kind() != CredSingle || s.Credentials.Single().Username != "builder" {
		t.Fatalf("unexpected credentials: %+v", s.Credentials)
	}
}

func TestLoadConfig_ExplicitPathMissing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope.json")

	_, _, err := LoadConfig(p)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	want := "Error: Configuration file '" + p + "' not found"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"networks": [`)

	_, _, err := LoadConfig(p)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Format != "JSON" {
		t.Fatalf("expected JSON format, got %q", pe.Format)
	}
	if !strings.HasPrefix(err.Error(), "Error: Invalid JSON in configuration file: ") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "networks: [unclosed\n")

	_, _, err := LoadConfig(p)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Format != "YAML" {
		t.Fatalf("expected YAML format, got %q", pe.Format)
	}
	if !strings.HasPrefix(err.Error(), "Error: Invalid YAML in configuration file: ") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestLoadConfig_EnvCandidateWins(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "inventory.yaml", `networks:
  - name: Lab
    servers:
      - ip: 192.168.56.10
        username: builder
`)
	t.Setenv("SSHMENU_CONFIG", p)

	cfg, path, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if path != p {
		t.Fatalf("expected env candidate %q, got %q", p, path)
	}
	if len(cfg.Networks) != 1 || cfg.Networks[0].Name != "Lab" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_ChainExhaustedNamesDefault(t *testing.T) {
	t.Setenv("SSHMENU_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, _, err := LoadConfig("")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Path != "config.json" {
		t.Fatalf("expected the default name in the error, got %q", nf.Path)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{
  "networks": [
    {"name": "Edge", "servers": [{"username": "root"}]}
  ]
}`)

	_, _, err := LoadConfig(p)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %v", ve.Findings)
	}
	if ve.Findings[0] != "Network [0] Server [0]: Missing required field 'ip'" {
		t.Fatalf("unexpected finding: %q", ve.Findings[0])
	}
}

func TestConfigPathCandidates_ExplicitOnly(t *testing.T) {
	got := ConfigPathCandidates("/etc/sshmenu/config.json")
	if len(got) != 1 || got[0] != "/etc/sshmenu/config.json" {
		t.Fatalf("expected the explicit path to be the sole candidate, got %v", got)
	}
}

func TestConfigPathCandidates_Order(t *testing.T) {
	t.Setenv("SSHMENU_CONFIG", "/tmp/env.json")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	got := ConfigPathCandidates("")
	want := []string{
		"/tmp/env.json",
		"config.json", "config.yaml", "config.yml",
		"/tmp/xdg/sshmenu/config.json", "/tmp/xdg/sshmenu/config.yaml", "/tmp/xdg/sshmenu/config.yml",
		"/tmp/home/.config/sshmenu/config.json", "/tmp/home/.config/sshmenu/config.yaml", "/tmp/home/.config/sshmenu/config.yml",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuildServer_PortCapture(t *testing.T) {
	cases := []struct {
		name string
		port any
		want int // stored value; 0 means "not captured", normalized to 22 later
	}{
		{"valid int", 2222, 2222},
		{"json float", float64(8022), 8022},
		{"string", "22", 0},
		{"out of range", 70000, 0},
		{"fractional", 8022.5, 0},
		{"absent", nil, 0},
	}
	for _, tc := range cases {
		sm := map[string]any{"ip": "10.0.0.1", "username": "root"}
		if tc.port != nil {
			sm["port"] = tc.port
		}
		srv := buildServer(sm)
		if srv.Port != tc.want {
			t.Fatalf("%s: expected stored port %d, got %d", tc.name, tc.want, srv.Port)
		}
		if info, _ := NormalizeServer(srv); tc.want == 0 && info.Port != 22 {
			t.Fatalf("%s: expected effective port 22, got %d", tc.name, info.Port)
		}
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/tmp/home")

	if got := expandPath("~/keys/id"); got != "/tmp/home/keys/id" {
		t.Fatalf("expected tilde expansion, got %q", got)
	}
	if got := expandPath("$HOME/keys/id"); got != "/tmp/home/keys/id" {
		t.Fatalf("expected env expansion, got %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Fatalf("expected absolute path unchanged, got %q", got)
	}
	if got := expandPath(""); got != "" {
		t.Fatalf("expected empty to stay empty, got %q", got)
	}
}

// Package menu contains the inventory model and selection TUI for sshmenu.
package menu

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full inventory for sshmenu: network zones, each holding
// the servers an operator may open a session on.
//
// Example JSON:
//
// {
//   "networks": [
//     {
//       "name": "DMZ",
//       "cidr": "10.20.0.0/24",
//       "servers": [
//         {"ip": "10.20.0.5", "description": "edge proxy", "username": "admin", "key_path": "~/.ssh/dmz"},
//         {"ip": "10.20.0.9", "port": 2222, "users": [{"username": "deploy"}]}
//       ]
//     }
//   ]
// }
//
// YAML documents with the same shape are accepted when the file ends in
// .yaml or .yml.
type Config struct {
	Networks []Network
}

// Network groups servers under a display name and an optional CIDR.
// The CIDR is display-only and never parsed.
type Network struct {
	Name    string
	CIDR    string
	Servers []Server
}

// Server is one connectable endpoint inside a network.
type Server struct {
	IP          string
	Description string

	// Port holds the configured value only when the document carried an
	// integer in [1,65535]; anything else is stored as 0 so the
	// normalizer's fallback to 22 stays observable.
	Port int

	Credentials Credentials
}

// User is a login candidate for a server. Description stays empty when
// the document omitted it; display fallbacks are applied at render time.
type User struct {
	Username    string
	KeyPath     string
	Description string
}

// CredKind discriminates the two credential layouts a server may use.
type CredKind int

const (
	// CredUsers is the explicit "users" array layout.
	CredUsers CredKind = iota
	// CredSingle is the legacy inline "username"/"key_path" layout.
	CredSingle
)

// Credentials is either an explicit user list or a single legacy user.
// Validation guarantees every server carries exactly one of the two, so
// values are built only through SingleUser and UserList. The zero value
// behaves as an empty user list.
type Credentials struct {
	kind   CredKind
	single User
	users  []User
}

// SingleUser builds the legacy single-user variant.
func SingleUser(u User) Credentials {
	return Credentials{kind: CredSingle, single: u}
}

// UserList builds the explicit user-list variant.
func UserList(users []User) Credentials {
	return Credentials{kind: CredUsers, users: users}
}

// Kind reports which variant this value holds.
func (c Credentials) Kind() CredKind { return c.kind }

// Single returns the legacy user; the zero User unless Kind() == CredSingle.
func (c Credentials) Single() User { return c.single }

// List returns the explicit users; nil unless Kind() == CredUsers.
func (c Credentials) List() []User { return c.users }

// NotFoundError reports that a configuration file does not exist.
// Its text is the exact line printed to the operator.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Error: Configuration file '%s' not found", e.Path)
}

// ParseError reports an unparseable configuration document.
// Its text is the exact line printed to the operator.
type ParseError struct {
	Format string // "JSON" or "YAML"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error: Invalid %s in configuration file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError carries every finding from ValidateConfig. The CLI
// prints the findings line by line; Error() is a short summary only.
type ValidationError struct {
	Findings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed (%d findings)", len(e.Findings))
}

var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// LoadConfig discovers, parses, and validates the inventory.
// If explicitPath is empty, it searches common locations in order:
// 1. $SSHMENU_CONFIG
// 2. ./config.json, ./config.yaml, ./config.yml
// 3. $XDG_CONFIG_HOME/sshmenu/config.{json,yaml,yml}
// 4. ~/.config/sshmenu/config.{json,yaml,yml}
//
// Returns the parsed Config and the path that was used.
func LoadConfig(explicitPath string) (*Config, string, error) {
	if explicitPath != "" {
		// An explicitly named file must exist; no fallback chain.
		p := expandPath(explicitPath)
		if _, err := os.Stat(p); err != nil {
			return nil, p, &NotFoundError{Path: explicitPath}
		}
		cfg, err := loadConfigFile(p)
		return cfg, p, err
	}

	for _, p := range ConfigPathCandidates("") {
		p = expandPath(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		cfg, err := loadConfigFile(p)
		return cfg, p, err
	}

	// Name the primary default so the operator knows what to create.
	return nil, "", &NotFoundError{Path: configFileNames[0]}
}

// ConfigPathCandidates returns possible configuration file paths, in
// priority order. If explicitPath is provided, it is the only candidate.
func ConfigPathCandidates(explicitPath string) []string {
	if explicitPath != "" {
		return []string{explicitPath}
	}
	var out []string
	if env := os.Getenv("SSHMENU_CONFIG"); env != "" {
		out = append(out, env)
	}
	out = append(out, configFileNames...)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		for _, name := range configFileNames {
			out = append(out, filepath.Join(xdg, "sshmenu", name))
		}
	}
	if home, _ := os.UserHomeDir(); home != "" {
		for _, name := range configFileNames {
			out = append(out, filepath.Join(home, ".config", "sshmenu", name))
		}
	}
	return out
}

func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, err
	}
	raw, err := decodeDocument(path, data)
	if err != nil {
		return nil, err
	}
	if findings := ValidateConfig(raw, ValidateOptions{}); len(findings) > 0 {
		return nil, &ValidationError{Findings: findings}
	}
	return buildConfig(raw), nil
}

// decodeDocument parses data into the raw form the validator consumes.
// YAML is selected by file extension; everything else is treated as
// JSON, matching the config.json default.
func decodeDocument(path string, data []byte) (any, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &ParseError{Format: "YAML", Err: err}
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &ParseError{Format: "JSON", Err: err}
		}
	}
	return raw, nil
}

// buildConfig converts a validated raw document into the typed model.
// Shapes are guaranteed by ValidateConfig, so failed lookups simply
// leave zero values behind instead of erroring.
func buildConfig(raw any) *Config {
	root, _ := raw.(map[string]any)
	rawNetworks, _ := root["networks"].([]any)

	cfg := &Config{Networks: make([]Network, 0, len(rawNetworks))}
	for _, rn := range rawNetworks {
		nm, _ := rn.(map[string]any)
		network := Network{
			Name: stringField(nm, "name"),
			CIDR: stringField(nm, "cidr"),
		}
		rawServers, _ := nm["servers"].([]any)
		for _, rs := range rawServers {
			sm, _ := rs.(map[string]any)
			network.Servers = append(network.Servers, buildServer(sm))
		}
		cfg.Networks = append(cfg.Networks, network)
	}
	return cfg
}

func buildServer(sm map[string]any) Server {
	srv := Server{
		IP:          stringField(sm, "ip"),
		Description: stringField(sm, "description"),
	}
	if v, ok := sm["port"]; ok {
		if p, isInt := intValue(v); isInt && p >= 1 && p <= 65535 {
			srv.Port = p
		}
	}

	if rawUsers, ok := sm["users"]; ok {
		list, _ := rawUsers.([]any)
		users := make([]User, 0, len(list))
		for _, ru := range list {
			um, _ := ru.(map[string]any)
			users = append(users, User{
				Username:    stringField(um, "username"),
				KeyPath:     stringField(um, "key_path"),
				Description: stringField(um, "description"),
			})
		}
		srv.Credentials = UserList(users)
		return srv
	}

	srv.Credentials = SingleUser(User{
		Username: stringField(sm, "username"),
		KeyPath:  stringField(sm, "key_path"),
	})
	return srv
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// expandPath expands leading "~" and environment variables in a path.
// If the input is empty, returns "".
func expandPath(p string) string {
	if p == "" {
		return ""
	}
	// Expand env vars like $HOME
	p = os.ExpandEnv(p)
	// Expand leading "~"
	if strings.HasPrefix(p, "~") {
		home, _ := os.UserHomeDir()
		if home != "" {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
			// Note: "~user" not handled to avoid userdb lookups; rare for local client config paths.
		}
	}
	return p
}

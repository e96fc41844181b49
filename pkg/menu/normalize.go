package menu

// AuthMethod says how a login candidate authenticates. It is purely
// presentational: ssh itself decides what actually happens on the wire.
type AuthMethod int

const (
	// AuthPassword means ssh will prompt inside the session.
	AuthPassword AuthMethod = iota
	// AuthKey points ssh at an identity file.
	AuthKey
)

func (a AuthMethod) String() string {
	if a == AuthKey {
		return "KEY"
	}
	return "PASSWORD"
}

// ServerInfo is the display record for a server after defaulting:
// description falls back to "N/A" and the port to 22.
type ServerInfo struct {
	IP          string
	Description string
	Port        int

	// DefaultPort marks the effective port as the ssh default, for the
	// "(default)" / "(custom)" tag in the connection summary.
	DefaultPort bool
}

// ResolvedTarget pairs the server a session will dial with the chosen login.
type ResolvedTarget struct {
	Server ServerInfo
	User   User
}

// NormalizeServer applies display and connection defaults for one server
// and flattens its credentials into a user list. The legacy single-user
// layout synthesizes one user whose description is the server description,
// or "Default user" when the server has none. Pure: the input is never
// mutated and equal inputs yield equal results.
func NormalizeServer(s Server) (ServerInfo, []User) {
	info := ServerInfo{
		IP:          s.IP,
		Description: s.Description,
		Port:        s.Port,
	}
	if info.Description == "" {
		info.Description = "N/A"
	}
	if info.Port < 1 || info.Port > 65535 {
		info.Port = 22
	}
	info.DefaultPort = info.Port == 22

	if s.Credentials.Kind() == CredSingle {
		u := s.Credentials.Single()
		if u.Description == "" {
			if s.Description != "" {
				u.Description = s.Description
			} else {
				u.Description = "Default user"
			}
		}
		return info, []User{u}
	}
	return info, s.Credentials.List()
}

// AuthDisplay classifies a login for display: AuthKey with the expanded
// key path when one is configured, AuthPassword otherwise.
func AuthDisplay(u User) (AuthMethod, string) {
	if u.KeyPath != "" {
		return AuthKey, expandPath(u.KeyPath)
	}
	return AuthPassword, ""
}

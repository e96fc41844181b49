package menu

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted reports that the operator closed the menu with ctrl+c
// rather than a normal quit; the CLI prints the farewell on this path.
var ErrInterrupted = errors.New("interrupted")

// UIOptions controls the selector behavior.
type UIOptions struct {
	Theme Theme

	// Launcher runs confirmed targets. Its theme is filled in from
	// Theme when left zero.
	Launcher Launcher
}

// RunTUI drives the three-level selection menu until the operator quits.
// Returns ErrInterrupted when the menu was closed with ctrl+c.
func RunTUI(cfg *Config, opts UIOptions) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if opts.Launcher.Theme == (Theme{}) {
		opts.Launcher.Theme = opts.Theme
	}

	// No Bubble Tea signal handler: the menu reads ctrl+c as a key in
	// raw mode, and the launcher owns SIGINT while a session holds the
	// terminal in cooked mode.
	m := newModel(cfg, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithoutSignalHandler())
	res, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := res.(model); ok && fm.interrupted {
		return ErrInterrupted
	}
	return nil
}

type level int

const (
	levelNetworks level = iota
	levelServers
	levelUsers
)

type sessionDoneMsg struct {
	target ResolvedTarget
	err    error
}

type model struct {
	cfg  *Config
	opts UIOptions

	level       level
	emptyNotice bool

	// Cursors address the underlying slices, not screen rows, so they
	// survive filtering and back-navigation.
	netCursor  int
	srvCursor  int
	userCursor int

	// `/` filter over the network and server lists. The slices hold the
	// visible rows as indexes into the underlying data.
	input       textinput.Model
	netFiltered []int
	srvFiltered []int

	// Normalized view of the server confirmed at levelUsers.
	curServer ServerInfo
	curUsers  []User

	status      string
	statusUntil time.Time

	width       int
	height      int
	ready       bool
	quitting    bool
	interrupted bool

	theme Theme
}

func newModel(cfg *Config, opts UIOptions) model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter..."
	ti.CharLimit = 128
	ti.PromptStyle = ti.PromptStyle.Bold(true)
	ti.Cursor.Style = ti.Cursor.Style.Bold(true)

	m := model{
		cfg:   cfg,
		opts:  opts,
		input: ti,
		theme: opts.Theme,
	}
	m.recomputeFilter()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, textinput.Blink)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case sessionDoneMsg:
		if errors.Is(msg.err, ErrInterrupted) {
			return m.farewell()
		}
		m.setStatus(fmt.Sprintf("session closed: %s@%s", msg.target.User.Username, msg.target.Server.IP), 2500)
		return m, tea.ClearScreen

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "ctrl+c" {
		return m.farewell()
	}

	if m.emptyNotice {
		// Any key returns to the network list.
		m.emptyNotice = false
		return m, nil
	}

	if m.input.Focused() {
		return m.handleFilterKey(k)
	}

	switch k.String() {
	case "up", "k":
		m.move(-1)
		return m, nil
	case "down", "j":
		m.move(1)
		return m, nil
	case "enter":
		return m.confirm()
	case "/":
		// The user list is short by construction and never filtered.
		if m.level != levelUsers {
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	case "q", "Q", "esc":
		return m.back()
	}
	return m, nil
}

// handleFilterKey runs while the filter input is focused: esc clears,
// enter keeps the filter applied, arrows still move the cursor, and
// everything else is typed into the query.
func (m model) handleFilterKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "up":
		m.move(-1)
		return m, nil
	case "down":
		m.move(1)
		return m, nil
	case "esc":
		m.input.Blur()
		m.input.SetValue("")
		m.recomputeFilter()
		return m, nil
	case "enter":
		m.input.Blur()
		m.recomputeFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	m.recomputeFilter()
	return m, cmd
}

func (m model) farewell() (tea.Model, tea.Cmd) {
	m.interrupted = true
	m.quitting = true
	return m, tea.Quit
}

// back goes up one level, or quits silently from the network list.
// Cursors above the abandoned level keep their positions.
func (m model) back() (tea.Model, tea.Cmd) {
	switch m.level {
	case levelNetworks:
		m.quitting = true
		return m, tea.Quit
	case levelServers:
		m.level = levelNetworks
		m.clearFilter()
		return m, nil
	default:
		m.level = levelServers
		m.clearFilter()
		return m, nil
	}
}

func (m model) confirm() (tea.Model, tea.Cmd) {
	switch m.level {
	case levelNetworks:
		net := m.currentNetwork()
		if net == nil || !containsInt(m.netFiltered, m.netCursor) {
			return m, nil
		}
		if len(net.Servers) == 0 {
			m.emptyNotice = true
			return m, nil
		}
		m.level = levelServers
		m.srvCursor = 0
		m.clearFilter()
		return m, nil

	case levelServers:
		srv := m.currentServer()
		if srv == nil || !containsInt(m.srvFiltered, m.srvCursor) {
			return m, nil
		}
		info, users := NormalizeServer(*srv)
		if len(users) == 1 {
			// Single login: skip the user list and connect directly.
			return m.connect(ResolvedTarget{Server: info, User: users[0]})
		}
		m.curServer = info
		m.curUsers = users
		m.level = levelUsers
		m.userCursor = 0
		m.clearFilter()
		return m, nil

	default:
		if m.userCursor < 0 || m.userCursor >= len(m.curUsers) {
			return m, nil
		}
		return m.connect(ResolvedTarget{Server: m.curServer, User: m.curUsers[m.userCursor]})
	}
}

// connect hands the terminal to an ssh session and resumes this same
// screen, cursor intact, when the session returns.
func (m model) connect(t ResolvedTarget) (tea.Model, tea.Cmd) {
	c := &sessionCommand{launcher: m.opts.Launcher, target: t}
	return m, tea.Exec(c, func(err error) tea.Msg {
		return sessionDoneMsg{target: t, err: err}
	})
}

// sessionCommand adapts Launcher.Session to tea.ExecCommand so the
// program releases the terminal for the lifetime of the ssh child.
type sessionCommand struct {
	launcher Launcher
	target   ResolvedTarget

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *sessionCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *sessionCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *sessionCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *sessionCommand) Run() error {
	return c.launcher.Session(c.target, c.stdin, c.stdout, c.stderr)
}

// --- Cursor and filter helpers ---

func (m *model) currentNetwork() *Network {
	if m.netCursor < 0 || m.netCursor >= len(m.cfg.Networks) {
		return nil
	}
	return &m.cfg.Networks[m.netCursor]
}

func (m *model) currentServer() *Server {
	net := m.currentNetwork()
	if net == nil || m.srvCursor < 0 || m.srvCursor >= len(net.Servers) {
		return nil
	}
	return &net.Servers[m.srvCursor]
}

func (m *model) move(delta int) {
	switch m.level {
	case levelNetworks:
		m.netCursor = moveWithin(m.netFiltered, m.netCursor, delta)
	case levelServers:
		m.srvCursor = moveWithin(m.srvFiltered, m.srvCursor, delta)
	default:
		m.userCursor = clamp(m.userCursor+delta, 0, len(m.curUsers)-1)
	}
}

// moveWithin shifts cursor (an underlying index) by delta positions
// inside the visible rows, clamped at both ends; no wraparound.
func moveWithin(visible []int, cursor, delta int) int {
	if len(visible) == 0 {
		return cursor
	}
	pos := 0
	for i, idx := range visible {
		if idx == cursor {
			pos = i
			break
		}
	}
	pos = clamp(pos+delta, 0, len(visible)-1)
	return visible[pos]
}

func (m *model) clearFilter() {
	m.input.Blur()
	m.input.SetValue("")
	m.recomputeFilter()
}

func (m *model) recomputeFilter() {
	q := strings.TrimSpace(m.input.Value())
	switch m.level {
	case levelNetworks:
		m.netFiltered = fuzzyFilter(networkSearchTexts(m.cfg.Networks), q)
		m.netCursor = snapCursor(m.netFiltered, m.netCursor)
	case levelServers:
		var texts []string
		if net := m.currentNetwork(); net != nil {
			texts = serverSearchTexts(net.Servers)
		}
		m.srvFiltered = fuzzyFilter(texts, q)
		m.srvCursor = snapCursor(m.srvFiltered, m.srvCursor)
	}
}

// snapCursor keeps the cursor where it is while still visible, else
// moves it to the first visible row.
func snapCursor(visible []int, cursor int) int {
	for _, idx := range visible {
		if idx == cursor {
			return cursor
		}
	}
	if len(visible) > 0 {
		return visible[0]
	}
	return cursor
}

func networkSearchTexts(nets []Network) []string {
	out := make([]string, len(nets))
	for i, n := range nets {
		out[i] = strings.ToLower(n.Name + " " + n.CIDR)
	}
	return out
}

func serverSearchTexts(servers []Server) []string {
	out := make([]string, len(servers))
	for i, s := range servers {
		fields := []string{s.IP, s.Description}
		_, users := NormalizeServer(s)
		for _, u := range users {
			fields = append(fields, u.Username)
		}
		out[i] = strings.ToLower(strings.Join(fields, " "))
	}
	return out
}

// fuzzyFilter returns the indexes of items whose search text matches the
// query, best score first. An empty query keeps document order.
//
// Query semantics (simple, fzf-like tokenization):
// - Split query on whitespace into tokens.
// - All tokens must match (AND).
// - Score is the sum of token scores (higher is better).
func fuzzyFilter(texts []string, query string) []int {
	all := make([]int, len(texts))
	for i := range all {
		all[i] = i
	}
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return all
	}

	type scored struct {
		idx int
		s   int
	}
	scoreds := make([]scored, 0, len(texts))
	for i, text := range texts {
		total := 0
		okAll := true
		for _, t := range tokens {
			s, ok := fuzzyScore(t, text)
			if !ok {
				okAll = false
				break
			}
			total += s
		}
		if okAll {
			scoreds = append(scoreds, scored{idx: i, s: total})
		}
	}
	sort.SliceStable(scoreds, func(a, b int) bool {
		if scoreds[a].s != scoreds[b].s {
			return scoreds[a].s > scoreds[b].s
		}
		return scoreds[a].idx < scoreds[b].idx
	})
	out := make([]int, len(scoreds))
	for i := range scoreds {
		out[i] = scoreds[i].idx
	}
	return out
}

// fuzzyScore performs a simple subsequence fuzzy match.
// Returns (score, true) if query is a subsequence of text; otherwise (0, false).
// The score rewards consecutive matches, word boundaries, and early positions.
func fuzzyScore(query, text string) (int, bool) {
	if query == "" {
		return 0, true
	}
	rt := []rune(text)
	rq := []rune(query)

	ti := 0
	lastPos := -1
	consecutive := 0
	score := 0
	firstPos := -1

	for _, qch := range rq {
		found := false
		for i := ti; i < len(rt); i++ {
			if rt[i] == qch {
				score += 10
				if firstPos == -1 {
					firstPos = i
				}
				if lastPos >= 0 && i == lastPos+1 {
					consecutive++
					score += 5 * consecutive // escalating bonus
				} else {
					consecutive = 0
				}
				// Word boundary bonus
				if i == 0 || !isAlphaNum(rt[i-1]) {
					score += 10
				}
				lastPos = i
				ti = i + 1
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	// Early start bonus
	if firstPos >= 0 {
		if bonus := 20 - firstPos; bonus > 0 {
			score += bonus
		}
	}
	return score, true
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func (m *model) setStatus(s string, ms int) {
	m.status = s
	m.statusUntil = time.Now().Add(time.Duration(ms) * time.Millisecond)
}

func (m model) statusActive() bool {
	return m.status != "" && time.Now().Before(m.statusUntil)
}

// --- Rendering ---

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "sshmenu: loading...\n"
	}

	var b strings.Builder
	switch {
	case m.emptyNotice:
		m.viewEmptyNotice(&b)
	case m.level == levelNetworks:
		m.viewNetworks(&b)
	case m.level == levelServers:
		m.viewServers(&b)
	default:
		m.viewUsers(&b)
	}
	return b.String()
}

// viewHeader writes the centered title between two border lines plus a
// spacer, four lines in all.
func (m model) viewHeader(b *strings.Builder, title string) {
	w := maxInt(20, m.width)
	border := strings.Repeat("═", maxInt(4, w-4))
	b.WriteString("  " + m.theme.BorderLine(border) + "\n")
	pad := maxInt(2, (w-lipgloss.Width(title))/2)
	b.WriteString(strings.Repeat(" ", pad) + m.theme.HeaderLine(title) + "\n")
	b.WriteString("  " + m.theme.BorderLine(border) + "\n")
	b.WriteString("\n")
}

// viewPrelude renders the filter and status lines when present and
// returns the number of lines written so far.
func (m model) viewPrelude(b *strings.Builder) int {
	used := 4
	if m.input.Focused() || strings.TrimSpace(m.input.Value()) != "" {
		b.WriteString("  " + m.input.View() + "\n\n")
		used += 2
	}
	if m.statusActive() {
		b.WriteString("  " + m.theme.SubText(m.status) + "\n\n")
		used += 2
	}
	return used
}

func (m model) viewFooterAt(b *strings.Builder, usedLines int, text string) {
	for i := usedLines; i < m.height-2; i++ {
		b.WriteString("\n")
	}
	pad := maxInt(2, (m.width-lipgloss.Width(text))/2)
	b.WriteString(strings.Repeat(" ", pad) + m.theme.InfoText(text) + "\n")
}

func (m model) rowClamp() lipgloss.Style {
	return lipgloss.NewStyle().MaxWidth(maxInt(20, m.width))
}

func (m model) viewNetworks(b *strings.Builder) {
	m.viewHeader(b, "SELECT NETWORK ZONE")
	used := m.viewPrelude(b)
	trunc := m.rowClamp()

	avail := maxInt(1, m.height-used-3)
	shown := 0
	for _, idx := range m.netFiltered {
		if shown >= avail {
			break
		}
		n := m.cfg.Networks[idx]
		cidr := n.CIDR
		if cidr == "" {
			cidr = "N/A"
		}
		count := len(n.Servers)
		plural := "s"
		if count == 1 {
			plural = ""
		}
		line := fmt.Sprintf("%-15s (%-18s) - %d server%s", n.Name, cidr, count, plural)

		sel := idx == m.netCursor
		row := "  " + m.theme.CursorMark(sel)
		if sel {
			row += m.theme.SelectedText(line)
		} else {
			row += m.theme.apply(m.theme.Text, line)
		}
		b.WriteString(trunc.Render(row) + "\n")
		shown++
	}
	if len(m.netFiltered) == 0 {
		b.WriteString("  " + m.theme.SubText("No matches.") + "\n")
		shown++
	}

	m.viewFooterAt(b, used+shown, "↑/↓: Navigate | ENTER: Select | Q: Quit")
}

func (m model) viewServers(b *strings.Builder) {
	net := m.currentNetwork()
	if net == nil {
		return
	}
	m.viewHeader(b, fmt.Sprintf("SELECT SERVER - %s Network", net.Name))
	used := m.viewPrelude(b)
	trunc := m.rowClamp()

	avail := maxInt(3, m.height-used-4)
	shown := 0
	for _, idx := range m.srvFiltered {
		if shown+3 > avail {
			break
		}
		info, users := NormalizeServer(net.Servers[idx])

		addr := info.IP
		if info.Port != 22 {
			addr += fmt.Sprintf(":%d", info.Port)
		}
		userDisplay := fmt.Sprintf("%d users available", len(users))
		if len(users) == 1 {
			userDisplay = "User: " + users[0].Username
		}

		sel := idx == m.srvCursor
		row := "  " + m.theme.CursorMark(sel)
		if sel {
			row += m.theme.SelectedText(fmt.Sprintf("%s  - %s", addr, info.Description))
		} else {
			row += m.theme.LabelText(addr) + "  " + m.theme.SubText("- "+info.Description)
		}
		b.WriteString(trunc.Render(row) + "\n")

		userStyle := m.theme.Subtext
		if len(users) > 1 {
			userStyle = m.theme.Accent
		}
		b.WriteString(trunc.Render("        "+m.theme.apply(userStyle, userDisplay)) + "\n")
		b.WriteString("\n")
		shown += 3
	}
	if len(m.srvFiltered) == 0 {
		b.WriteString("  " + m.theme.SubText("No matches.") + "\n")
		shown++
	}

	m.viewFooterAt(b, used+shown, "↑/↓: Navigate | ENTER: Select | Q: Back")
}

func (m model) viewUsers(b *strings.Builder) {
	m.viewHeader(b, fmt.Sprintf("SELECT USER - %s", m.curServer.IP))
	trunc := m.rowClamp()

	b.WriteString(trunc.Render("    "+m.theme.SubText("Server: ")+
		m.theme.apply(m.theme.Text, fmt.Sprintf("%s - %s", m.curServer.IP, m.curServer.Description))) + "\n")
	b.WriteString("\n")
	used := 6
	if m.statusActive() {
		b.WriteString("  " + m.theme.SubText(m.status) + "\n\n")
		used += 2
	}

	avail := maxInt(3, m.height-used-4)
	shown := 0
	for idx, u := range m.curUsers {
		if shown+3 > avail {
			break
		}
		sel := idx == m.userCursor

		row := "  " + m.theme.CursorMark(sel)
		if sel {
			row += m.theme.SelectedText(u.Username)
		} else {
			row += m.theme.LabelText(u.Username)
		}
		b.WriteString(trunc.Render(row) + "\n")

		desc := u.Description
		if desc == "" {
			desc = "No description"
		}
		if sel {
			b.WriteString(trunc.Render("       "+m.theme.SelectedText(desc)) + "\n")
		} else {
			b.WriteString(trunc.Render("       "+m.theme.SubText(desc)) + "\n")
		}

		method, keyPath := AuthDisplay(u)
		authText := method.String()
		if keyPath != "" {
			keyDisplay := keyPath
			// Rune-based so a multi-byte path never splits mid-character.
			if r := []rune(keyDisplay); len(r) >= 50 {
				keyDisplay = "..." + string(r[len(r)-47:])
			}
			authText += " (" + keyDisplay + ")"
		}
		authStyle := m.theme.Warning
		if method == AuthKey {
			authStyle = m.theme.Success
		}
		b.WriteString(trunc.Render("        "+m.theme.apply(authStyle, authText)) + "\n")
		shown += 3
	}

	m.viewFooterAt(b, used+shown, "↑/↓: Navigate | ENTER: Connect | Q: Back")
}

func (m model) viewEmptyNotice(b *strings.Builder) {
	name := ""
	if net := m.currentNetwork(); net != nil {
		name = net.Name
	}
	m.viewHeader(b, name+" Network")

	msg := "No servers configured in this network"
	mid := maxInt(5, m.height/2)
	for i := 4; i < mid; i++ {
		b.WriteString("\n")
	}
	pad := maxInt(2, (m.width-lipgloss.Width(msg))/2)
	b.WriteString(strings.Repeat(" ", pad) + m.theme.ErrorText(msg) + "\n")

	m.viewFooterAt(b, mid+1, "Press any key to return...")
}

// --- Small helpers ---

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

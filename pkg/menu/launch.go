package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
)

// BuildSSHCommand constructs the ssh argv for a resolved target:
// ssh -p <port> [-i <expanded key>] <user>@<ip>.
func BuildSSHCommand(t ResolvedTarget) []string {
	argv := []string{"ssh", "-p", strconv.Itoa(t.Server.Port)}
	if method, keyPath := AuthDisplay(t.User); method == AuthKey {
		argv = append(argv, "-i", keyPath)
	}
	return append(argv, t.User.Username+"@"+t.Server.IP)
}

// Launcher opens an interactive ssh session on the operator's terminal.
// RunCmd exists so tests can substitute the child process; nil means the
// real (*exec.Cmd).Run.
type Launcher struct {
	Theme  Theme
	RunCmd func(*exec.Cmd) error
}

// Session runs the full connect sequence: the summary block, the
// blocking ssh child, the interrupt/failure epilogue, and the
// acknowledgment prompt. The streams come from the terminal owner —
// Bubble Tea hands the real stdin/stdout over for the duration.
//
// A non-nil error is always ErrInterrupted: the operator hit ctrl+c at
// the acknowledgment prompt, so the menu should say farewell instead of
// resuming.
func (l Launcher) Session(t ResolvedTarget, stdin io.Reader, stdout, stderr io.Writer) error {
	l.printSummary(stdout, t)

	argv := BuildSSHCommand(t)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runCmd := l.RunCmd
	if runCmd == nil {
		runCmd = (*exec.Cmd).Run
	}

	// While the child runs the terminal is in cooked mode, so ctrl+c
	// raises SIGINT against the whole process group. It belongs to the
	// session: interrupting a password prompt must kill ssh, not the
	// menu waiting behind it.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)

	runErr := runCmd(cmd)

	interrupted := false
	select {
	case <-sigc:
		interrupted = true
	default:
	}
	l.epilogue(stdout, interrupted, runErr)

	fmt.Fprintf(stdout, "\n%s", l.Theme.SubText("Press ENTER to return to menu..."))
	ackDone := make(chan struct{})
	go func() {
		waitForEnter(bufio.NewReader(stdin))
		close(ackDone)
	}()
	select {
	case <-ackDone:
		return nil
	case <-sigc:
		return ErrInterrupted
	}
}

// printSummary writes the pre-connect block on the plain terminal.
func (l Launcher) printSummary(w io.Writer, t ResolvedTarget) {
	th := l.Theme
	border := th.BorderLine(strings.Repeat("═", 60))

	userDesc := t.User.Description
	if userDesc == "" {
		userDesc = "N/A"
	}
	method, keyPath := AuthDisplay(t.User)
	portTag := "(custom)"
	if t.Server.DefaultPort {
		portTag = "(default)"
	}

	fmt.Fprintf(w, "\n%s\n", border)
	fmt.Fprintf(w, "%s %s\n", th.LabelText("Connecting to:"), th.apply(th.Highlight, t.Server.IP))
	fmt.Fprintf(w, "%s   %s\n", th.LabelText("Description:"), th.apply(th.Text, t.Server.Description))
	fmt.Fprintf(w, "%s      %s %s\n", th.LabelText("Username:"), th.apply(th.Text, t.User.Username), th.SubText("("+userDesc+")"))
	if method == AuthKey {
		fmt.Fprintf(w, "%s   %s\n", th.LabelText("Auth Method:"), th.SuccessText(method.String()))
		fmt.Fprintf(w, "%s      %s\n", th.LabelText("Key Path:"), th.SubText(keyPath))
	} else {
		fmt.Fprintf(w, "%s   %s\n", th.LabelText("Auth Method:"), th.WarnText(method.String()))
	}
	fmt.Fprintf(w, "%s          %s\n", th.LabelText("Port:"), th.apply(th.Text, fmt.Sprintf("%d %s", t.Server.Port, portTag)))
	fmt.Fprintf(w, "%s\n\n", border)
}

// epilogue reports how the session ended. A nonzero ssh exit stays
// silent: ssh has already printed its own diagnostics to the terminal.
func (l Launcher) epilogue(w io.Writer, interrupted bool, runErr error) {
	var ee *exec.ExitError
	switch {
	case interrupted:
		fmt.Fprintf(w, "\n%s\n", l.Theme.WarnText("Connection interrupted"))
	case runErr == nil, errors.As(runErr, &ee):
	default:
		fmt.Fprintf(w, "\n%s\n", l.Theme.ErrorText(fmt.Sprintf("Connection failed: %v", runErr)))
	}
}

// waitForEnter blocks until the operator completes a line.
func waitForEnter(r *bufio.Reader) {
	_, _ = r.ReadString('\n')
}

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"miqa/internal/api"
)

// checkState grades one line of a status or validation report.
type checkState string

const (
	stateOK   checkState = "ok"
	stateWarn checkState = "warn"
	stateFail checkState = "fail"
)

var stateColors = map[checkState]text.Colors{
	stateOK:   {text.FgGreen},
	stateWarn: {text.FgYellow},
	stateFail: {text.FgRed, text.Bold},
}

type check struct {
	name   string
	state  checkState
	detail string
}

// renderChecks draws checks as a Check/State/Detail table. On a terminal the
// state cell is coloured.
func renderChecks(checks []check, colorize bool) string {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		state := string(c.state)
		if colorize {
			state = stateColors[c.state].Sprint(state)
		}
		rows = append(rows, []string{c.name, state, c.detail})
	}
	return tableSpec{
		headers:  []string{"Check", "State", "Detail"},
		rows:     rows,
		colorize: colorize,
	}.render()
}

func statusChecks(status *api.Status) []check {
	daemon := check{name: "Daemon", state: stateWarn, detail: "not running (run `miqa start`)"}
	if status.Running {
		daemon.state = stateOK
		daemon.detail = "pid " + strconv.Itoa(status.PID)
		if status.StartedAt != "" {
			daemon.detail += ", up since " + status.StartedAt
		}
	}
	integrity := check{name: "Integrity", state: stateOK, detail: "quick_check passed"}
	if !status.Healthy {
		integrity.state = stateFail
		integrity.detail = "database missing or quick_check failed"
	}
	return []check{
		daemon,
		{name: "Database", state: stateOK, detail: status.DatabasePath},
		integrity,
	}
}

// storeSummary describes the document store contents in one sentence.
func storeSummary(stats api.StoreStats) string {
	parts := []string{
		plural(stats.Collections, "collection"),
		plural(stats.Folders, "folder"),
		plural(stats.Items, "item"),
		plural(stats.Files, "file"),
		plural(stats.Sites, "site"),
	}
	return "Store: " + strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func renderStatus(out io.Writer, status *api.Status) {
	fmt.Fprint(out, renderChecks(statusChecks(status), shouldColorize(out)))
	fmt.Fprintln(out, storeSummary(status.Stats))
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

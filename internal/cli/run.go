package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const banner = `Lumina, your todo list.
Type /help for commands, /exit to leave.`

// Run reads commands from in and executes them until EOF or /exit.
func Run(in io.Reader, out io.Writer) {
	store := NewStore()
	app := NewApp(store, out)

	fmt.Fprintln(out, banner)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd := ParseCommand(line)
		if cmd == nil {
			fmt.Fprintln(out, "Commands start with a slash. Try /help.")
			continue
		}
		if !app.Run(cmd) {
			return
		}
	}
}

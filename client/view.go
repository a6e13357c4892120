package main

import (
	"fmt"
	"io"
	"strings"
)

const clearScreen = "\033[H\033[2J"

// drawTitle prints the ASCII Pokemon title logo.
func drawTitle(w io.Writer) {
	fmt.Fprintln(w, "                                  ,'\\")
	fmt.Fprintln(w, "    _.----.        ____         ,'  _\\   ___    ___     ____")
	fmt.Fprintln(w, "_,-'       `.     |    |  /`.   \\,-'    |   \\  /   |   |    \\  |`.")
	fmt.Fprintln(w, "\\      __    \\    '-.  | /   `.  ___    |    \\/    |   '-.   \\ |  |")
	fmt.Fprintln(w, " \\.    \\ \\   |  __  |  |/    ,','_  `.  |          | __  |    \\|  |")
	fmt.Fprintln(w, "   \\    \\/   /,' _`.|      ,' / / / /   |          ,' _`.|     |  |")
	fmt.Fprintln(w, "    \\     ,-'/  / \\ \\    ,'   | \\/ / ,`.|         /  / \\ \\  |     |")
	fmt.Fprintln(w, "     \\    \\ |   \\_/  |   `-.  \\    `'  /|  |    ||   \\_/  | |\\    |")
	fmt.Fprintln(w, "      \\    \\ \\      /       `-.`.___,-' |  |\\  /| \\      /  | |   |")
	fmt.Fprintln(w, "       \\    \\ `.__,'|  |`-._    `|      |__| \\/ |  `.__,'|  | |   |")
	fmt.Fprintln(w, "        \\_.-'       |__|    `-._ |              '-.|     '-.| |   |")
	fmt.Fprintln(w, "                                `'                            '-._|")
}

// progressBar renders done/total as a fixed-width bar.
func progressBar(done, total, width int) string {
	if total == 0 {
		return "[" + strings.Repeat(" ", width) + "] 0% • 0 / 0"
	}
	pct := done * 100 / total
	filled := done * width / total
	return fmt.Sprintf("[%s%s] %d%% • %d / %d",
		strings.Repeat("█", filled), strings.Repeat(" ", width-filled), pct, done, total)
}

// render draws the header, progress and the visible part of the list.
func render(w io.Writer, title string, m *model, height int, status string) {
	fmt.Fprint(w, clearScreen)
	drawTitle(w)
	fmt.Fprintln(w)

	view := "normal"
	if m.shiny {
		view = "shiny"
	}
	fmt.Fprintf(w, "%s  (%s view)\n", title, view)
	done, total := m.progress()
	fmt.Fprintln(w, progressBar(done, total, 40))
	fmt.Fprintln(w)

	start, end := m.window(height)
	for i := start; i < end; i++ {
		e := m.entries[i]
		rec := m.caught[e.APIName]

		pointer := "  "
		if i == m.cursor {
			pointer = "> "
		}
		normal, shiny := " ", " "
		if rec.Normal {
			normal = "●"
		}
		if rec.Shiny {
			shiny = "★"
		}
		fmt.Fprintf(w, "%s#%03d [%s%s] %s\n", pointer, e.Num, normal, shiny, e.Name)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "↑/↓ move  PgUp/PgDn page  n normal  s shiny  v switch view  q quit")
	if status != "" {
		fmt.Fprintln(w, status)
	}
}

// Command client is a terminal front end for the tracker: it lists one roster
// section with caught marks and toggles catches from the keyboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/eiannone/keyboard"

	"dextracker/internal/dex"
	"dextracker/internal/tracker"
)

const requestTimeout = 10 * time.Second

var CLI struct {
	Server  string `short:"s" help:"Tracker server URL" default:"http://localhost:8080"`
	Game    string `short:"g" help:"Game id; its roster is fetched from the server" default:"gen1"`
	Roster  string `short:"r" help:"Roster file to use instead of fetching one" type:"existingfile"`
	Section string `help:"Section id (default: the first)"`
	Height  int    `help:"List rows to show" default:"20"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("client"),
		kong.Description("Terminal Pokédex tracker"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	api := tracker.New(CLI.Server, nil)

	roster, err := loadRoster(ctx)
	if err != nil {
		return err
	}
	section, err := pickSection(roster, CLI.Section)
	if err != nil {
		return err
	}

	state, err := api.State(ctx)
	if err != nil {
		return err
	}
	m := newModel(section.Pokemon, state)
	title := fmt.Sprintf("%s / %s", roster.Name, section.Name)

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("opening keyboard: %w", err)
	}
	defer func() { _ = keyboard.Close() }()

	status := ""
	for {
		render(os.Stdout, title, m, CLI.Height, status)
		status = ""

		char, key, err := keyboard.GetKey()
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		switch {
		case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q':
			return nil
		case key == keyboard.KeyArrowUp:
			m.move(-1)
		case key == keyboard.KeyArrowDown:
			m.move(1)
		case key == keyboard.KeyPgup:
			m.move(-CLI.Height)
		case key == keyboard.KeyPgdn:
			m.move(CLI.Height)
		case char == 'v':
			m.shiny = !m.shiny
		case char == 'n' || char == 's':
			status = toggle(ctx, api, m, char == 's')
		}
	}
}

// toggle flips a catch and saves it, undoing the change if the save fails.
func toggle(ctx context.Context, api *tracker.Client, m *model, shiny bool) string {
	e, ok := m.current()
	if !ok {
		return ""
	}
	before := m.caught[e.APIName]

	flip := m.toggleNormal
	if shiny {
		flip = m.toggleShiny
	}
	name, rec, _ := flip()

	saveCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := api.Set(saveCtx, name, rec); err != nil {
		m.restore(name, before)
		return "save failed: " + err.Error()
	}
	return ""
}

// loadRoster reads the roster file or fetches the game's roster from the
// server's static data.
func loadRoster(ctx context.Context) (*dex.Roster, error) {
	if CLI.Roster != "" {
		return dex.ReadRoster(CLI.Roster)
	}

	name := CLI.Game + ".json"
	if CLI.Game == dex.LZAGameID {
		name = "lza.json"
	}
	url := strings.TrimRight(CLI.Server, "/") + "/data/" + name

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching roster: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching roster %s: status %d", url, resp.StatusCode)
	}

	var r dex.Roster
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding roster: %w", err)
	}
	if r.Name == "" {
		if g, ok := dex.LookupGame(r.GameID); ok {
			r.Name = g.Name
		}
	}
	return &r, nil
}

func pickSection(r *dex.Roster, id string) (dex.Section, error) {
	if len(r.Sections) == 0 {
		return dex.Section{}, fmt.Errorf("roster %s has no sections", r.GameID)
	}
	if id == "" {
		return r.Sections[0], nil
	}
	for _, s := range r.Sections {
		if s.ID == id {
			return s, nil
		}
	}
	return dex.Section{}, fmt.Errorf("roster %s has no section %q", r.GameID, id)
}

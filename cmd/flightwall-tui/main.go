package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/flightwall/internal/app"
	"github.com/unklstewy/flightwall/internal/logging"
	"github.com/unklstewy/flightwall/pkg/airports"
	"github.com/unklstewy/flightwall/pkg/config"
	"github.com/unklstewy/flightwall/pkg/flights"
)

// snapshotter is the part of *flights.Fetcher the wall uses.
type snapshotter interface {
	Snapshot(ctx context.Context, q flights.Query) []flights.Flight
	ResolveRadiusNM(q flights.Query) float64
}

type model struct {
	fetcher  snapshotter
	airports airports.Index
	refresh  time.Duration
	maxRows  int

	query    flights.Query
	label    string
	home     string
	radiusNM float64

	flights  []flights.Flight
	updated  time.Time
	loading  bool
	selected int
	err      error
	width    int
	height   int

	inputMode   bool // entering an airport code
	inputBuffer string
}

type tickMsg time.Time

type snapshotMsg struct {
	flights []flights.Flight
	at      time.Time
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetch takes a snapshot off the UI goroutine.
func (m model) fetch() tea.Cmd {
	fetcher, q := m.fetcher, m.query
	return func() tea.Msg {
		list := fetcher.Snapshot(context.Background(), q)
		return snapshotMsg{flights: list, at: time.Now()}
	}
}

func newModel(fetcher snapshotter, idx airports.Index, cfg *config.Config) model {
	m := model{
		fetcher:  fetcher,
		airports: idx,
		refresh:  cfg.Display.RefreshInterval(),
		maxRows:  cfg.Display.MaxRows,
		label:    cfg.Observer.CenterLabel(),
		home:     cfg.Observer.CenterLabel(),
	}
	m.radiusNM = fetcher.ResolveRadiusNM(m.query)
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick(m.refresh))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if m.inputMode {
			return m.updateInput(msg)
		}

		// Clear error on any keypress (but don't quit)
		if m.err != nil {
			m.err = nil
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetch()
		case "a":
			m.inputMode = true
			m.inputBuffer = ""
		case "h":
			m.query.CenterLat, m.query.CenterLon = "", ""
			m.label = m.home
			m.loading = true
			return m, m.fetch()
		case "+", "=":
			return m.setRadius(m.radiusNM * 1.5)
		case "-", "_":
			return m.setRadius(m.radiusNM / 1.5)
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.flights)-1 {
				m.selected++
			}
		}

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick(m.refresh))

	case snapshotMsg:
		m.flights = msg.flights
		m.updated = msg.at
		m.loading = false
		if m.selected >= len(m.flights) {
			m.selected = max(len(m.flights)-1, 0)
		}
	}

	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.inputMode = false
		code := m.inputBuffer
		m.inputBuffer = ""
		return m.centerOnAirport(code)
	case "esc":
		m.inputMode = false
		m.inputBuffer = ""
	case "backspace":
		if len(m.inputBuffer) > 0 {
			m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
		}
	default:
		if len(msg.String()) == 1 {
			m.inputBuffer += strings.ToUpper(msg.String())
		}
	}
	return m, nil
}

func (m model) centerOnAirport(code string) (tea.Model, tea.Cmd) {
	if m.airports == nil {
		m.err = fmt.Errorf("airport lookup disabled")
		return m, nil
	}

	center, err := airports.ResolveCenter(context.Background(), m.airports, code)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.query.CenterLat = strconv.FormatFloat(center.Lat, 'f', -1, 64)
	m.query.CenterLon = strconv.FormatFloat(center.Lon, 'f', -1, 64)
	m.label = center.Label
	m.selected = 0
	m.loading = true
	return m, m.fetch()
}

func (m model) setRadius(nm float64) (tea.Model, tea.Cmd) {
	m.radiusNM = flights.ClampRadiusNM(nm)
	m.query.RadiusNM = strconv.FormatFloat(m.radiusNM, 'f', 2, 64)
	m.loading = true
	return m, m.fetch()
}

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Keep the terminal for the UI; logs go to a file only.
	if cfg.Logging.File == "" {
		cfg.Logging.File = "flightwall-tui.log"
	}
	logger := logging.NewFileOnly(cfg.Logging)
	defer logger.Close()

	ctx := context.Background()
	store, err := app.OpenAirports(ctx, cfg, logger.Logger)
	if err != nil {
		log.Fatalf("Failed to open airports: %v", err)
	}
	defer store.Close()

	m := newModel(app.NewFetcher(cfg, logger.Logger), store.Index, cfg)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/flightwall/pkg/classify"
	"github.com/unklstewy/flightwall/pkg/coordinates"
	"github.com/unklstewy/flightwall/pkg/flights"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	inputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	routeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	gaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Rows taken by everything except the flight list.
const chromeRows = 8

const rowFormat = "%-8s  %-18s  %-4s  %-11s  %6s  %6s  %-3s  %4s"

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FLIGHTWALL"))
	s.WriteString("  ")
	s.WriteString(headerStyle.Render(m.label))
	s.WriteString(dimStyle.Render(fmt.Sprintf("  %.0f nm", m.radiusNM)))
	s.WriteString("\n\n")

	if m.inputMode {
		s.WriteString(promptStyle.Render("Airport code: "))
		s.WriteString(inputStyle.Render(m.inputBuffer + "_"))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("enter: center  esc: cancel"))
		return s.String()
	}

	s.WriteString(headerStyle.Render(fmt.Sprintf(rowFormat,
		"FLIGHT", "AIRLINE", "TYPE", "ROUTE", "ALT", "NM", "DIR", "KTS")))
	s.WriteString("\n")

	if len(m.flights) == 0 {
		if m.loading || m.updated.IsZero() {
			s.WriteString(dimStyle.Render("  Loading..."))
		} else {
			s.WriteString(dimStyle.Render("  No flights in range"))
		}
		s.WriteString("\n")
	}

	rows := m.visibleRows()
	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	end := min(start+rows, len(m.flights))

	for i := start; i < end; i++ {
		line := formatRow(m.flights[i])
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case m.flights[i].HasRoute():
			line = routeStyle.Render(line)
		case isGA(m.flights[i]):
			line = gaStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	status := fmt.Sprintf("%d flights", len(m.flights))
	if !m.updated.IsZero() {
		status += "  updated " + m.updated.Format("15:04:05")
	}
	if m.loading {
		status += "  refreshing"
	}
	s.WriteString(dimStyle.Render(status))
	s.WriteString("\n")
	s.WriteString(dimStyle.Render("q: quit  r: refresh  a: airport  h: home  +/-: radius  ↑/↓: select"))

	return s.String()
}

// visibleRows is how many flights fit on screen.
func (m model) visibleRows() int {
	rows := len(m.flights)
	if m.height > chromeRows {
		rows = min(rows, m.height-chromeRows)
	}
	if m.maxRows > 0 {
		rows = min(rows, m.maxRows)
	}
	return max(rows, 1)
}

// formatRow renders one flight as a fixed-width board line.
func formatRow(f flights.Flight) string {
	alt, dist, dir, gs := "-", "-", "-", "-"
	if f.AltitudeFt != nil {
		alt = fmt.Sprintf("%d", *f.AltitudeFt)
	}
	if f.DistanceKm != nil {
		dist = fmt.Sprintf("%.1f", coordinates.KmToNauticalMiles(*f.DistanceKm))
	}
	if f.BearingDeg != nil {
		dir = coordinates.Cardinal(*f.BearingDeg)
	}
	if f.GroundSpeed != nil {
		gs = fmt.Sprintf("%.0f", *f.GroundSpeed)
	}

	return fmt.Sprintf(rowFormat,
		truncate(f.Callsign, 8),
		truncate(deref(f.Airline), 18),
		truncate(deref(f.AircraftType), 4),
		formatRoute(f),
		alt, dist, dir, gs)
}

func formatRoute(f flights.Flight) string {
	if !f.HasRoute() {
		return ""
	}
	origin, dest := deref(f.Origin), deref(f.Destination)
	if origin == "" {
		origin = "?"
	}
	if dest == "" {
		dest = "?"
	}
	return truncate(origin+"-"+dest, 11)
}

func isGA(f flights.Flight) bool {
	return f.Airline != nil && *f.Airline == classify.GeneralAviation
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

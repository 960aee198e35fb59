package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// pollTickMsg fires on the poll interval.
type pollTickMsg struct{}

// tableFetchedMsg carries a finished table fetch.
type tableFetchedMsg struct {
	err    error
	body   []byte
	ticket tracker.TableTicket
}

// rowFetchedMsg carries a finished row fetch.
type rowFetchedMsg struct {
	err    error
	body   []byte
	ticket tracker.RowTicket
}

// pushMsg is a row change notification.
type pushMsg struct {
	id int64
}

// pushClosedMsg is sent when the push listener stops for good.
type pushClosedMsg struct{}

// saveDoneMsg carries a finished save.
type saveDoneMsg struct {
	err    error
	ticket *tracker.SaveTicket
}

func pollTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func fetchTable(b tracker.TableFetcher, tk tracker.TableTicket) tea.Cmd {
	return func() tea.Msg {
		body, err := b.FetchTable(context.Background())
		return tableFetchedMsg{ticket: tk, body: body, err: err}
	}
}

func fetchRow(b tracker.RowFetcher, tk tracker.RowTicket, p loads.Period) tea.Cmd {
	return func() tea.Msg {
		body, err := b.FetchRow(context.Background(), tk.ID, p)
		return rowFetchedMsg{ticket: tk, body: body, err: err}
	}
}

func submitSave(b tracker.Updater, tk *tracker.SaveTicket) tea.Cmd {
	return func() tea.Msg {
		return saveDoneMsg{ticket: tk, err: b.Update(context.Background(), tk.Update)}
	}
}

// waitForPush delivers the next id from ch.
func waitForPush(ch <-chan int64) tea.Cmd {
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return pushClosedMsg{}
		}
		return pushMsg{id: id}
	}
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	coreapp "impactgraph/internal/core/app"
	"impactgraph/internal/engine/impact"
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	result     impact.Result
	version    uint64
	files      int
	edges      int
	err        string
	updates    int
	lastUpdate time.Time
}

type updateMsg struct {
	result  impact.Result
	version uint64
	files   int
	edges   int
	err     error
}

func newUpdateMsg(u coreapp.Update) updateMsg {
	msg := updateMsg{result: u.Result, err: u.Err}
	if u.Snapshot != nil {
		msg.version = u.Snapshot.Version()
		msg.files = u.Snapshot.Len()
		msg.edges = u.Snapshot.EdgeCount()
	}
	return msg
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.version = msg.version
		m.files = msg.files
		m.edges = msg.edges
		m.lastUpdate = time.Now()
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.updates++
		m.result = msg.result
		m.list.SetItems(affectedItems(msg.result))
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func affectedItems(res impact.Result) []list.Item {
	items := make([]list.Item, 0, len(res.Affected)+len(res.Warnings))
	for _, a := range res.Affected {
		items = append(items, item{
			title: a.Path,
			desc:  fmt.Sprintf("%s | distance %d | weight %.3f | via %s", a.Classification, a.Distance, a.Contribution, a.Parent),
		})
	}
	for _, w := range res.Warnings {
		items = append(items, item{
			title: string(w.Code) + " " + w.Path,
			desc:  w.Detail,
		})
	}
	return items
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | v%d | %d files | %d edges",
		m.lastUpdate.Format("15:04:05"), m.version, m.files, m.edges))

	var summary string
	switch {
	case m.err != "":
		summary = highScoreStyle.Render("update failed: " + m.err)
	case m.updates == 0:
		summary = statusStyle.Render("waiting for changes")
	default:
		summary = fmt.Sprintf("%s | %d affected | %d pages | changed: %s",
			scoreStyle(m.result.Score).Render(fmt.Sprintf("score %d", m.result.Score)),
			m.result.TotalAffected,
			len(m.result.Pages),
			strings.Join(m.result.Changed, ", "))
	}

	header := fmt.Sprintf("%s\n%s\n%s\n", titleStyle.Render("Change Impact Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Affected Files"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

// RunWatchUI shows every applied change until the user quits.
func RunWatchUI(app *coreapp.App) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	app.SetUpdateHandler(func(u coreapp.Update) {
		p.Send(newUpdateMsg(u))
	})
	defer app.SetUpdateHandler(nil)

	go p.Send(newUpdateMsg(coreapp.Update{Snapshot: app.Snapshot()}))

	_, err := p.Run()
	return err
}

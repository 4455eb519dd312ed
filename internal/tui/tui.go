package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

// Options configures the terminal dashboard.
type Options struct {
	Tokens     oauth2.TokenSource // nil for sources that need no token
	Location   *time.Location
	ExportPath string
}

type model struct {
	ctx        context.Context
	loader     *store.Loader
	tokens     oauth2.TokenSource
	loc        *time.Location
	now        func() time.Time
	exportPath string

	snapshot *store.Snapshot
	query    report.Query
	dash     report.Dashboard

	loading  bool
	spinner  spinner.Model
	viewport viewport.Model
	status   string
	ready    bool
	width    int
	height   int
}

func newModel(ctx context.Context, loader *store.Loader, o Options) model {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.ExportPath == "" {
		o.ExportPath = report.ExportFilename
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return model{
		ctx:        ctx,
		loader:     loader,
		tokens:     o.Tokens,
		loc:        o.Location,
		now:        time.Now,
		exportPath: o.ExportPath,
		loading:    true,
		spinner:    sp,
	}
}

// Run starts the interactive dashboard and blocks until the user quits.
func Run(ctx context.Context, loader *store.Loader, o Options) error {
	p := tea.NewProgram(newModel(ctx, loader, o), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadSnapshotCmd(m.ctx, m.loader, m.tokens))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.logHeight())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = m.logHeight()
		}
		m.refresh()

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case snapshotLoadedMsg:
		m.loading = false
		m.snapshot = msg.Snapshot
		m.status = ""
		if msg.Snapshot.Err != nil {
			m.status = errorStyle.Render("Falha ao carregar os relatórios: " + msg.Snapshot.Err.Error())
		} else if n := len(msg.Snapshot.Rejected); n > 0 {
			m.status = dimStyle.Render(fmt.Sprintf("%d documento(s) ignorado(s) por formato inválido", n))
		}
		m.refresh()

	case exportDoneMsg:
		if msg.Err != nil {
			m.status = errorStyle.Render("Falha ao exportar: " + msg.Err.Error())
		} else {
			m.status = fmt.Sprintf("%d relatório(s) exportado(s) para %s", msg.Count, msg.Path)
		}

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return tea.Quit, true
	case "r":
		if m.loading {
			return nil, true
		}
		m.loading = true
		m.status = ""
		return tea.Batch(m.spinner.Tick, loadSnapshotCmd(m.ctx, m.loader, m.tokens)), true
	}

	if m.loading || m.snapshot == nil {
		return nil, false
	}

	switch key {
	case "u":
		m.query.UserID = cycle(m.dash.Catalog.Users, m.query.UserID)
	case "p":
		m.query.Project = cycle(m.dash.Catalog.Projects, m.query.Project)
	case "[":
		m.shiftDay(-1)
	case "]":
		m.shiftDay(1)
	case "t":
		m.query.From, m.query.To = nil, nil
	case "a":
		from := time.Date(2000, 1, 1, 0, 0, 0, 0, m.loc)
		m.query.From, m.query.To = &from, nil
	case "e":
		return exportCmd(m.exportPath, m.dash.Reports), true
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if i >= len(m.dash.ActionTypes) {
			return nil, true
		}
		m.query.Actions = toggle(m.query.Actions, m.dash.ActionTypes[i])
	default:
		return nil, false
	}
	m.refresh()
	return nil, true
}

// shiftDay moves a one-day window, starting from today when no date is set.
func (m *model) shiftDay(delta int) {
	day := m.now().In(m.loc)
	if m.query.From != nil {
		day = *m.query.From
	}
	day = time.Date(day.Year(), day.Month(), day.Day()+delta, 0, 0, 0, 0, m.loc)
	m.query.From, m.query.To = &day, &day
}

// refresh re-runs the pipeline for the current query.
func (m *model) refresh() {
	if m.snapshot == nil {
		return
	}
	m.dash = report.Build(m.snapshot.Reports, m.query, m.now(), m.loc)
	if m.ready {
		m.viewport.SetContent(renderActivities(m.dash.Activities, m.loc))
	}
}

func (m model) logHeight() int {
	h := m.height - 24
	if h < 5 {
		h = 5
	}
	return h
}

// cycle advances through "" (all) followed by options.
func cycle(options []string, current string) string {
	if current == "" {
		if len(options) == 0 {
			return ""
		}
		return options[0]
	}
	for i, o := range options {
		if o == current {
			if i+1 < len(options) {
				return options[i+1]
			}
			return ""
		}
	}
	return ""
}

func toggle(selected []string, action string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, a := range selected {
		if a == action {
			found = true
			continue
		}
		out = append(out, a)
	}
	if !found {
		out = append(out, action)
	}
	return out
}

func orAll(s string) string {
	if s == "" {
		return "Todos"
	}
	return s
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Painel de relatórios") + "\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Carregando relatórios...\n")
		return b.String()
	}

	b.WriteString(filterStyle.Render(fmt.Sprintf("Usuário: %s | Projeto: %s | Período: %s",
		orAll(m.query.UserID), orAll(m.query.Project), RenderPeriod(m.dash.Range, m.loc))) + "\n")
	b.WriteString(RenderSummary(m.dash, m.width) + "\n\n")
	b.WriteString(renderChart(m.dash.Series, m.width) + "\n\n")

	b.WriteString(headerStyle.Render("Atividades Recentes") + "  ")
	for i, a := range m.dash.ActionTypes {
		if i >= 9 {
			break
		}
		mark := "[ ]"
		if m.dash.ActionSelected(a) {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "%d%s %s  ", i+1, mark, a)
	}
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.viewport.View() + "\n")
	} else {
		b.WriteString(renderActivities(m.dash.Activities, m.loc) + "\n")
	}
	fmt.Fprintf(&b, "Total: %d registros exibidos\n", len(m.dash.Activities))

	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(dimStyle.Render("u usuário • p projeto • 1-9 ações • [ ] dia • t hoje • a tudo • e exportar • r recarregar • q sair"))
	return b.String()
}

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"

	"dissect/internal/analysis"
	"dissect/internal/disasm"
	"dissect/internal/dissect/styles"
	"dissect/internal/elfx"
	"dissect/internal/logging"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewSymbols
	viewInfo
)

type symbolItem struct {
	sym        elfx.Symbol
	demangled  string
	filterTerm string
}

func (i symbolItem) Title() string       { return fmt.Sprintf("%x  %s", i.sym.Addr, i.demangled) }
func (i symbolItem) Description() string { return "" }
func (i symbolItem) FilterValue() string { return i.filterTerm }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(symbolItem)
	if !ok {
		return
	}
	indicator, addrStyle := " ", styles.Address
	if index == m.Index() {
		indicator, addrStyle = ">", styles.Selected
	}
	fmt.Fprintf(w, " %s  %s  %s", indicator, addrStyle.Render(fmt.Sprintf("%x", i.sym.Addr)), i.demangled)
}

type model struct {
	viewport    viewport.Model
	symbolsList list.Model
	infoView    viewport.Model
	spinner     spinner.Model
	mode        viewMode
	path        string
	opts        decodeOptions
	in          input
	loading     bool
	err         error
	title       string
	listing     string
	width       int
	height      int
	lg          *logging.LoggerCloser
}

type loadedMsg struct {
	in  input
	err error
}

func loadCmd(path string, opts decodeOptions) tea.Cmd {
	return func() tea.Msg {
		in, err := opts.fileInput(path)
		return loadedMsg{in: in, err: err}
	}
}

func newModel(path string, opts decodeOptions, lg *logging.LoggerCloser) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	symbolsList := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	symbolsList.SetShowStatusBar(false)
	symbolsList.SetFilteringEnabled(true)
	symbolsList.Title = "Symbols"
	symbolsList.Styles.Title = styles.Title
	symbolsList.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	ivp := viewport.New()
	ivp.SetWidth(80)
	ivp.SetHeight(24)

	m := model{
		viewport:    vp,
		symbolsList: symbolsList,
		infoView:    ivp,
		spinner:     s,
		mode:        viewListing,
		path:        path,
		opts:        opts,
		loading:     true,
		width:       80,
		height:      24,
		lg:          lg,
	}
	m.updateInfo()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.path, m.opts), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.in = msg.in
			m.updateSymbolsList()
			m.show(m.in, filepath.Base(m.path))
		} else {
			m.mode = viewInfo
		}
		m.updateInfo()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateInfo()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.symbolsList.SetWidth(msg.Width)
			m.symbolsList.SetHeight(msg.Height - 2)
			m.infoView.SetWidth(msg.Width)
			m.infoView.SetHeight(msg.Height - 2)
			m.updateInfo()
		}

	case tea.KeyMsg:
		key := msg.String()
		// While filtering, every key but quit goes to the list.
		if m.mode != viewSymbols || m.symbolsList.FilterState() != list.Filtering || key == "ctrl+c" {
			if next, cmd, handled := m.key(key); handled {
				return next, cmd
			}
		}
	}

	switch m.mode {
	case viewSymbols:
		m.symbolsList, cmd = m.symbolsList.Update(msg)
	case viewInfo:
		m.infoView, cmd = m.infoView.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// key applies the view's own key bindings. It reports false for keys the
// active component should see.
func (m model) key(key string) (model, tea.Cmd, bool) {
	hasSymbols := len(m.symbolsList.Items()) > 0
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit, true
	case "l":
		m.mode = viewListing
	case "s":
		if hasSymbols {
			m.mode = viewSymbols
		}
	case "i":
		m.mode = viewInfo
	case "enter":
		if m.mode != viewSymbols {
			return m, nil, false
		}
		item, ok := m.symbolsList.SelectedItem().(symbolItem)
		if !ok {
			return m, nil, true
		}
		if in, ok := m.symbolInput(item.sym); ok {
			m.show(in, item.demangled)
			m.mode = viewListing
		}
	case "tab":
		m.mode = (m.mode + 1) % 3
		if m.mode == viewSymbols && !hasSymbols {
			m.mode = viewInfo
		}
	case "shift+tab":
		m.mode = (m.mode + 2) % 3
		if m.mode == viewSymbols && !hasSymbols {
			m.mode = viewListing
		}
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewSymbols:
		content = m.symbolsList.View()
	case viewInfo:
		content = m.infoView.View()
	default:
		content = m.viewport.View()
	}

	var menu string
	switch m.mode {
	case viewSymbols:
		menu = " Enter: decode • L: listing • I: info • Tab: cycle • Q: quit "
	case viewInfo:
		menu = " L: listing • S: symbols • Tab: cycle • Q: quit "
	default:
		if len(m.symbolsList.Items()) > 0 {
			menu = fmt.Sprintf(" %s • S: symbols • I: info • Tab: cycle • Q: quit ", m.title)
		} else {
			menu = fmt.Sprintf(" %s • I: info • Q: quit ", m.title)
		}
	}
	return content + "\n" + styles.MenuBar.Width(m.width).Render(menu)
}

// show decodes in and puts the listing into the main viewport.
func (m *model) show(in input, title string) {
	r, err := decodeOne(in, m.opts, true, m.lg)
	var b strings.Builder
	if err != nil {
		fmt.Fprintf(&b, "; %v\n", err)
	} else {
		writeListing(&b, r, m.opts, m.opts.color)
	}
	m.title = title
	m.listing = strings.TrimSuffix(b.String(), "\n")
	m.viewport.SetContent(m.listing)
	m.viewport.GotoTop()
}

// symbolInput cuts the bytes of sym out of the loaded section.
func (m model) symbolInput(sym elfx.Symbol) (input, bool) {
	if sym.Addr < m.in.addr || sym.Addr >= m.in.addr+uint64(len(m.in.code)) {
		return input{}, false
	}
	in := m.in
	off := sym.Addr - m.in.addr
	end := uint64(len(m.in.code))
	if sym.Size > 0 && off+sym.Size < end {
		end = off + sym.Size
	}
	in.code = m.in.code[off:end]
	in.addr = sym.Addr
	if sym.Thumb && in.arch == disasm.ArchARM {
		in.mode |= disasm.ModeThumb
	}
	return in, true
}

func (m *model) updateSymbolsList() {
	items := make([]list.Item, 0, len(m.in.symbols))
	for _, sym := range m.in.symbols {
		if _, ok := m.symbolInput(sym); !ok {
			continue
		}
		demangled := analysis.CachedDemangle(sym.Name)
		items = append(items, symbolItem{
			sym:        sym,
			demangled:  demangled,
			filterTerm: fmt.Sprintf("%x %s", sym.Addr, demangled),
		})
	}
	m.symbolsList.SetItems(items)
	m.symbolsList.Title = fmt.Sprintf("Symbols (%d total)", len(items))
}

func (m *model) infoMarkdown() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("; %s", m.path))
	switch {
	case m.err != nil:
		lines = append(lines, fmt.Sprintf("; error: %v", m.err))
	case !m.loading:
		lines = append(lines,
			fmt.Sprintf("; %s, %s, syntax %s", m.in.arch, m.in.mode, m.opts.syntax),
			fmt.Sprintf("; %d bytes at %#x", len(m.in.code), m.in.addr),
			fmt.Sprintf("; %d function symbols", len(m.symbolsList.Items())),
		)
	}
	md := fmt.Sprintf("# Dissect\n\n```\n%s\n```", strings.Join(lines, "\n"))
	if m.loading {
		md += fmt.Sprintf("\n\n%s Loading...", m.spinner.View())
	}
	return md
}

func (m *model) updateInfo() {
	md := m.infoMarkdown()
	width := m.width
	if width == 0 {
		width = 80
	}
	r, err := styles.MarkdownRenderer(width - 2)
	if err != nil {
		m.infoView.SetContent(md)
		return
	}
	rendered, err := r.Render(md)
	if err != nil {
		m.infoView.SetContent(md)
		return
	}
	m.infoView.SetContent(strings.TrimSuffix(rendered, "\n"))
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Browse the decoded listing and function symbols of a binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			opts, err := resolveOptions(cmd, cfg)
			if err != nil {
				return err
			}
			opts.detail = false

			// The screen owns stderr while the program runs.
			lg := logging.NewLoggerWithWriter(io.Discard)
			defer lg.Close()

			program := tea.NewProgram(
				newModel(args[0], opts, lg),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			_, err = program.Run()
			return err
		},
	}
	addArchFlags(cmd)
	addInputFlags(cmd)
	return cmd
}

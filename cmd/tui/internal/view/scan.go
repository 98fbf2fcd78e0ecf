package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfscan/internal/camera"
	"github.com/MrJamesThe3rd/nfscan/internal/invoice"
	"github.com/MrJamesThe3rd/nfscan/internal/screen"
)

const (
	maxItemRows = 12

	// openRetryDelay gives a session cancelled while opening time to be
	// released before the camera is asked again.
	openRetryDelay = 150 * time.Millisecond
)

// Consulter resolves a decoded NFC-e URL into an invoice.
type Consulter interface {
	Consult(ctx context.Context, url string) (*invoice.Invoice, error)
}

type scanKeyMap struct {
	Toggle key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func (k scanKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Cancel, k.Quit}
}

func (k scanKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newScanKeyMap() scanKeyMap {
	return scanKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s/enter", "escanear"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancelar"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "sair"),
		),
	}
}

// ScanModel is the NFC-e scan screen.
type ScanModel struct {
	CommonModel
	cam    camera.Capability
	client Consulter

	state screen.State

	// session is the open viewfinder; sessionID tags its messages so that
	// anything from an earlier session is dropped.
	session   camera.Session
	sessionID uuid.UUID

	spinner spinner.Model
	items   table.Model
	keys    scanKeyMap
	help    help.Model
	status  string
}

func NewScanModel(cam camera.Capability, client Consulter) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	t := table.New(
		table.WithColumns(itemColumns(0)),
		table.WithFocused(true),
		table.WithHeight(maxItemRows+itemHeaderHeight()),
	)
	t.SetStyles(itemTableStyles())

	return ScanModel{
		cam:     cam,
		client:  client,
		spinner: s,
		items:   t,
		keys:    newScanKeyMap(),
		help:    help.New(),
	}
}

// State exposes a copy of the screen state.
func (m ScanModel) State() screen.State { return m.state }

func (m ScanModel) Title() string { return "Leitor de NFC-e" }

func (m ScanModel) ShortHelp() string {
	keys := m.keys
	granted := m.state.Camera == camera.AuthorizationGranted

	keys.Toggle.SetEnabled(granted)
	keys.Cancel.SetEnabled(m.state.Scanning)

	if m.state.Scanning {
		keys.Toggle.SetHelp("s/enter", "cancelar leitura")
	}

	return m.help.View(keys)
}

func (m ScanModel) Init() tea.Cmd {
	return m.requestAuthorizationCmd()
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		m.help.Width = msg.Width
		m.items.SetColumns(itemColumns(m.Width))

		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case authorizationMsg:
		auth := msg.auth
		if msg.err != nil {
			slog.Error("camera authorization failed", "error", msg.err)
			auth = camera.AuthorizationDenied
		}

		m.state.SetAuthorization(auth)
		slog.Info("camera authorization", "authorization", auth)

		return m, nil

	case sessionOpenedMsg:
		return m.handleSessionOpened(msg)

	case retryOpenMsg:
		if msg.id != m.sessionID {
			return m, nil
		}

		return m, m.openSessionCmd(msg.id, true)

	case decodeMsg:
		return m.handleDecode(msg)

	case fetchResultMsg:
		m.state.FinishFetch(msg.invoice, msg.err)

		if msg.invoice != nil {
			m.refreshItems(msg.invoice)
		}

		return m, nil

	case spinner.TickMsg:
		if !m.state.Fetching {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ScanModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		if m.state.Scanning {
			m.cancelScan()
			return m, nil
		}

		return m.startScan()

	case key.Matches(msg, m.keys.Cancel):
		if m.state.Scanning {
			m.cancelScan()
		}

		return m, nil
	}

	if screen.Resolve(m.state).Body == screen.BodyResult {
		var cmd tea.Cmd
		m.items, cmd = m.items.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ScanModel) startScan() (tea.Model, tea.Cmd) {
	if !m.state.StartScan() {
		return m, nil
	}

	m.status = ""
	m.sessionID = uuid.New()

	return m, m.openSessionCmd(m.sessionID, false)
}

func (m *ScanModel) cancelScan() {
	m.state.StopScan()
	m.releaseSession()
}

// Release closes the viewfinder if one is open. It is safe to call on exit.
func (m *ScanModel) Release() {
	m.releaseSession()
}

func (m *ScanModel) releaseSession() {
	if m.session != nil {
		if err := m.session.Close(); err != nil {
			slog.Warn("closing scan session", "session", m.sessionID, "error", err)
		}
	}

	m.session = nil
	m.sessionID = uuid.Nil
}

func (m ScanModel) handleSessionOpened(msg sessionOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.sessionID {
		// Cancelled before the camera came up.
		if msg.session != nil {
			_ = msg.session.Close()
		}

		return m, nil
	}

	if errors.Is(msg.err, camera.ErrSessionOpen) && !msg.retried {
		// A session cancelled before it came up has not been released yet.
		slog.Debug("camera still held by a cancelled session, retrying", "session", msg.id)
		return m, retryOpenCmd(msg.id)
	}

	if msg.err != nil {
		slog.Error("opening scan session", "error", msg.err)
		m.state.StopScan()
		m.sessionID = uuid.Nil
		m.status = screen.MsgCameraUnavailable

		return m, nil
	}

	m.session = msg.session

	return m, waitForDecode(msg.id, msg.session)
}

func (m ScanModel) handleDecode(msg decodeMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.sessionID {
		return m, nil
	}

	if !msg.ok {
		slog.Warn("scan session ended without a decode", "session", msg.id)
		m.cancelScan()

		return m, nil
	}

	if !m.state.Decoded(msg.decode.Text) {
		return m, nil
	}

	m.releaseSession()
	slog.Info("qr decoded", "url", msg.decode.Text)

	m.state.BeginFetch()

	return m, tea.Batch(m.spinner.Tick, m.fetchCmd(msg.decode.Text))
}

func (m *ScanModel) refreshItems(inv *invoice.Invoice) {
	rows := make([]table.Row, 0, len(inv.Items))
	for _, it := range inv.Items {
		rows = append(rows, table.Row{
			it.Description,
			screen.FormatQuantity(it.Quantity),
			screen.FormatCurrency(it.UnitValue),
			screen.FormatCurrency(it.Total),
		})
	}

	m.items.SetRows(rows)
	m.items.SetHeight(min(len(rows), maxItemRows) + itemHeaderHeight())
	m.items.GotoTop()
}

func (m ScanModel) View() string {
	layout := screen.Resolve(m.state)

	switch layout.Mode {
	case screen.ModePermissionPending:
		return lipgloss.NewStyle().Padding(2).Render("Solicitando permissão da câmera...")
	case screen.ModePermissionDenied:
		return lipgloss.NewStyle().Padding(2).Render(
			errorStyle.Render("Sem acesso à câmera.") + "\n\n" +
				faintStyle.Render("Permita o acesso nas configurações do dispositivo e abra o app novamente."),
		)
	}

	sections := []string{buttonStyle.Render(layout.ButtonLabel)}

	if layout.Viewfinder {
		vf := viewfinderStyle
		if w := m.Width - 4; m.Width > 0 && w < viewfinderWidth {
			vf = vf.Width(max(w, 16))
		}

		sections = append(sections, vf.Render("Aponte a câmera para o QR Code da nota"))
	}

	if m.status != "" {
		sections = append(sections, errorStyle.Render(m.status))
	}

	switch layout.Body {
	case screen.BodyLoading:
		sections = append(sections, fmt.Sprintf("%s Consultando nota fiscal...", m.spinner.View()))
	case screen.BodyError:
		sections = append(sections, errorStyle.Render(m.state.FetchError))
	case screen.BodyResult:
		sections = append(sections, m.viewInvoice(m.state.Invoice))
	case screen.BodyEmpty:
		sections = append(sections, faintStyle.Render("Escaneie o QR Code de uma NFC-e para ver os detalhes da compra."))
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, interleave(sections)...),
	)
}

func (m ScanModel) viewInvoice(inv *invoice.Invoice) string {
	var header strings.Builder

	header.WriteString(titleStyle.Render(inv.Store) + "\n")
	header.WriteString("CNPJ: " + inv.TaxID + "\n")

	if inv.IssuedAt != "" {
		header.WriteString("Emissão: " + inv.IssuedAt + "\n")
	}

	header.WriteString(totalStyle.Render("Total: " + screen.FormatCurrency(inv.Total)))

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header.String(),
		"",
		m.items.View(),
		"",
		faintStyle.Render("URL: "+m.state.LastDecodedURL),
	))
}

// interleave puts a blank line between sections.
func interleave(sections []string) []string {
	out := make([]string, 0, len(sections)*2)
	for i, s := range sections {
		if i > 0 {
			out = append(out, "")
		}

		out = append(out, s)
	}

	return out
}

// Messages

type authorizationMsg struct {
	auth camera.Authorization
	err  error
}

type sessionOpenedMsg struct {
	id      uuid.UUID
	session camera.Session
	err     error
	retried bool
}

type retryOpenMsg struct {
	id uuid.UUID
}

type decodeMsg struct {
	id     uuid.UUID
	decode camera.Decode
	ok     bool
}

type fetchResultMsg struct {
	invoice *invoice.Invoice
	err     error
}

// requestAuthorizationCmd blocks until the platform answers.
func (m ScanModel) requestAuthorizationCmd() tea.Cmd {
	return func() tea.Msg {
		auth, err := m.cam.RequestAuthorization(context.Background())
		return authorizationMsg{auth: auth, err: err}
	}
}

func (m ScanModel) openSessionCmd(id uuid.UUID, retried bool) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.cam.Open(context.Background(), camera.QROnly())
		return sessionOpenedMsg{id: id, session: sess, err: err, retried: retried}
	}
}

func retryOpenCmd(id uuid.UUID) tea.Cmd {
	return tea.Tick(openRetryDelay, func(time.Time) tea.Msg {
		return retryOpenMsg{id: id}
	})
}

func waitForDecode(id uuid.UUID, sess camera.Session) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-sess.Decodes()
		return decodeMsg{id: id, decode: d, ok: ok}
	}
}

// fetchCmd has no timeout and no cancellation; a response from an older
// scan can land after a newer one started.
func (m ScanModel) fetchCmd(url string) tea.Cmd {
	return func() tea.Msg {
		inv, err := m.client.Consult(context.Background(), url)
		return fetchResultMsg{invoice: inv, err: err}
	}
}

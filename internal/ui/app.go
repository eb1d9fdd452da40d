// internal/ui/app.go
package ui

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"kinschat/internal/broadcast"
	"kinschat/internal/chat"
	"kinschat/internal/commands"
	"kinschat/internal/config"
	"kinschat/internal/dispatcher"
	"kinschat/internal/export"
	"kinschat/internal/kinos"
	"kinschat/internal/models"
)

// Messages emitted by async commands.
type historyReadyMsg struct{}

type sendDoneMsg struct{ model string }

type broadcastDoneMsg struct{ err error }

type imageDoneMsg struct {
	model string
	err   error
}

type ttsDoneMsg struct {
	path string
	err  error
}

type exportDoneMsg struct {
	path string
	err  error
}

// Model is the top-level bubbletea model. One bordered column per selected
// backend, a shared input line at the bottom, and overlays for help and
// model selection.
type Model struct {
	cfg         *config.Config
	registry    *models.Registry
	store       *chat.Store
	dispatcher  *dispatcher.Dispatcher
	coordinator *broadcast.Coordinator
	client      *kinos.Client
	logger      *slog.Logger
	exportDir   string

	width, height int
	ready         bool

	focus     int // index into the selected-model list
	input     textinput.Model
	spin      spinner.Model
	viewports map[string]viewport.Model
	renderer  *glamour.TermRenderer

	menu     *MenuState
	menuOpen bool
	showHelp bool
	status   string
}

func New(cfg *config.Config, registry *models.Registry, store *chat.Store, d *dispatcher.Dispatcher, c *broadcast.Coordinator, client *kinos.Client, exportDir string, logger *slog.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or /help"
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(Orange)

	return Model{
		cfg:         cfg,
		registry:    registry,
		store:       store,
		dispatcher:  d,
		coordinator: c,
		client:      client,
		logger:      logger,
		exportDir:   exportDir,
		input:       ti,
		spin:        sp,
		viewports:   make(map[string]viewport.Model),
		menu:        NewMenuState(),
		status:      "Loading history...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.initHistoryCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.menu.SetMaxHeight(msg.Height)
		m.layoutColumns()
		m.refreshColumns()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.busy() {
			m.refreshColumns()
		}
		return m, cmd

	case historyReadyMsg:
		m.status = ""
		m.refreshColumns()
		return m, nil

	case sendDoneMsg:
		m.refreshColumns()
		return m, nil

	case broadcastDoneMsg:
		if msg.err != nil {
			m.logger.Warn("broadcast failed", "error", msg.err)
			m.status = msg.err.Error()
		}
		m.refreshColumns()
		return m, nil

	case imageDoneMsg:
		if msg.err != nil {
			m.status = "image generation failed: " + msg.err.Error()
		}
		m.refreshColumns()
		return m, nil

	case ttsDoneMsg:
		if msg.err != nil {
			m.status = "speech synthesis failed: " + msg.err.Error()
		} else {
			m.status = "audio written to " + msg.path
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported to " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || key == "ctrl+q" {
		return m, tea.Quit
	}

	if m.showHelp {
		switch key {
		case "esc", "f1", "ctrl+h", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.menuOpen {
		switch key {
		case "esc", "ctrl+m":
			m.menuOpen = false
		case "up", "k":
			m.menu.Up()
		case "down", "j":
			m.menu.Down()
		case " ", "space", "enter":
			if entry := m.menu.Selected(); entry != nil {
				cmd := m.toggleModel(entry.ID)
				m.menu.Load(m.registry)
				return m, cmd
			}
		}
		return m, nil
	}

	switch key {
	case "f1", "ctrl+h":
		m.showHelp = true
		return m, nil

	case "ctrl+m":
		m.menu.Load(m.registry)
		m.menuOpen = true
		return m, nil

	case "tab":
		m.moveFocus(1)
		return m, nil

	case "shift+tab":
		m.moveFocus(-1)
		return m, nil

	case "ctrl+x":
		if id := m.focusedModel(); id != "" {
			if conv, ok := m.store.Snapshot(id); ok && len(conv.ImageData) > 0 {
				m.store.RemoveImage(id, len(conv.ImageData)-1)
				m.status = "image removed"
				m.refreshColumns()
			}
		}
		return m, nil

	case "pgup", "pgdown":
		if id := m.focusedModel(); id != "" {
			vp := m.viewports[id]
			if key == "pgup" {
				vp.HalfViewUp()
			} else {
				vp.HalfViewDown()
			}
			m.viewports[id] = vp
		}
		return m, nil

	case "ctrl+a":
		return m.submitBroadcast(m.input.Value())

	case "enter":
		return m.submit(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes one line of input: a slash command or a single-model send.
func (m Model) submit(value string) (tea.Model, tea.Cmd) {
	value = strings.TrimSpace(value)
	if value == "" {
		return m, nil
	}

	if cmd := commands.Parse(value); cmd != nil {
		m.input.SetValue("")
		return m.runCommand(cmd)
	}

	modelID := m.focusedModel()
	if modelID == "" {
		m.status = "no model selected"
		return m, nil
	}
	conv, ok := m.store.Snapshot(modelID)
	if !ok {
		return m, nil
	}
	if conv.IsLoading {
		m.status = m.registry.Name(modelID) + " is still responding"
		return m, nil
	}

	m.input.SetValue("")
	m.status = ""
	return m, m.sendCmd(modelID, value, conv.ImageData)
}

func (m Model) submitBroadcast(value string) (tea.Model, tea.Cmd) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "/") {
		return m, nil
	}
	m.input.SetValue("")
	m.status = ""
	return m, m.broadcastCmd(value)
}

func (m Model) runCommand(cmd commands.Command) (tea.Model, tea.Cmd) {
	switch cmd := cmd.(type) {
	case commands.Help:
		m.showHelp = true

	case commands.ToggleModels:
		m.menu.Load(m.registry)
		m.menuOpen = !m.menuOpen

	case commands.SelectModel:
		if _, ok := m.registry.Get(cmd.ID); !ok {
			m.status = "unknown model: " + cmd.ID
			return m, nil
		}
		return m, m.toggleModel(cmd.ID)

	case commands.Broadcast:
		return m, m.broadcastCmd(cmd.Text)

	case commands.GenerateImage:
		modelID := m.focusedModel()
		if modelID == "" {
			m.status = "no model selected"
			return m, nil
		}
		return m, m.imageCmd(modelID, cmd.Prompt)

	case commands.Attach:
		m.attachImage(cmd.Path)

	case commands.Speak:
		return m, m.ttsCmd(cmd.Text)

	case commands.Export:
		modelID := cmd.Model
		if modelID == "" {
			modelID = m.focusedModel()
		}
		if modelID == "" {
			m.status = "no model selected"
			return m, nil
		}
		return m, m.exportCmd(modelID)

	case commands.ClearChat:
		if modelID := m.focusedModel(); modelID != "" {
			m.store.Update(modelID, func(c *chat.Conversation) {
				c.Messages = nil
			})
			m.refreshColumns()
		}

	case commands.Quit:
		return m, tea.Quit

	case commands.ParseError:
		m.status = cmd.Message
	}
	return m, nil
}

// attachImage buffers an image for the focused conversation's next send.
// Anything that is not an image payload is rejected.
func (m *Model) attachImage(path string) {
	modelID := m.focusedModel()
	if modelID == "" {
		m.status = "no model selected"
		return
	}

	if strings.HasPrefix(path, "data:") {
		if !strings.HasPrefix(path, "data:image/") {
			m.status = "only image attachments are supported"
			return
		}
		m.store.AddImage(modelID, path)
		m.status = "image buffered"
		m.refreshColumns()
		return
	}

	mime, ok := imageMIME(filepath.Ext(path))
	if !ok {
		m.status = "only image attachments are supported"
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		m.status = "attach failed: " + err.Error()
		return
	}
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	m.store.AddImage(modelID, uri)
	m.status = "image buffered"
	m.refreshColumns()
}

func imageMIME(ext string) (string, bool) {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png", true
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".gif":
		return "image/gif", true
	case ".webp":
		return "image/webp", true
	default:
		return "", false
	}
}

// toggleModel flips a model's selection state. A model selected for the
// first time mid-session has an empty conversation; its history bootstrap
// runs asynchronously, welcome fallback included, just like startup.
func (m *Model) toggleModel(id string) tea.Cmd {
	m.registry.Toggle(id)
	m.clampFocus()
	m.layoutColumns()
	m.refreshColumns()

	desc, ok := m.registry.Get(id)
	if !ok || !desc.Selected {
		return nil
	}
	conv, ok := m.store.Snapshot(id)
	if !ok || len(conv.Messages) > 0 {
		return nil
	}
	return m.initModelCmd(id)
}

// Async commands

func (m Model) initModelCmd(modelID string) tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		d.InitializeHistory(context.Background(), modelID)
		return historyReadyMsg{}
	}
}

func (m Model) initHistoryCmd() tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		d.InitializeAll(context.Background())
		return historyReadyMsg{}
	}
}

func (m Model) sendCmd(modelID, content string, images []string) tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		d.Send(context.Background(), modelID, content, images)
		return sendDoneMsg{model: modelID}
	}
}

// broadcastCmd fans content out to every selected model. Pending images
// buffered on the focused conversation ride along and are consumed, the
// same way a single-model send consumes them.
func (m Model) broadcastCmd(content string) tea.Cmd {
	var images []string
	if id := m.focusedModel(); id != "" {
		if conv, ok := m.store.Snapshot(id); ok && len(conv.ImageData) > 0 {
			images = conv.ImageData
			m.store.Update(id, func(c *chat.Conversation) {
				c.ImageData = nil
			})
		}
	}

	c := m.coordinator
	return func() tea.Msg {
		_, err := c.Broadcast(context.Background(), content, images)
		return broadcastDoneMsg{err: err}
	}
}

func (m Model) imageCmd(modelID, prompt string) tea.Cmd {
	store, client := m.store, m.client
	name := m.registry.Name(modelID)
	timeout := time.Duration(m.cfg.Defaults.SendTimeout) * time.Second
	return func() tea.Msg {
		thinkingID := chat.NewThinkingID(modelID)
		store.Append(modelID, chat.Message{
			ID:        thinkingID,
			Content:   "Generating image...",
			Role:      chat.RoleAssistant,
			Timestamp: time.Now(),
			ModelName: name,
		})
		store.SetLoading(modelID, true)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		url, err := client.GenerateImage(ctx, modelID, prompt)
		if err != nil {
			store.Replace(modelID, thinkingID, chat.Message{
				ID:        chat.NewErrorID(modelID),
				Content:   "Failed to generate image: " + err.Error(),
				Role:      chat.RoleAssistant,
				Timestamp: time.Now(),
				ModelName: name,
			})
			store.SetLoading(modelID, false)
			return imageDoneMsg{model: modelID, err: err}
		}

		responseID := chat.NewResponseID(modelID)
		store.Replace(modelID, thinkingID, chat.Message{
			ID:        responseID,
			Content:   "Generated image for: " + prompt,
			Role:      chat.RoleAssistant,
			Timestamp: time.Now(),
			ModelName: name,
		})
		store.AttachImageURL(modelID, responseID, url)
		store.SetLoading(modelID, false)
		return imageDoneMsg{model: modelID}
	}
}

func (m Model) ttsCmd(text string) tea.Cmd {
	if text == "" {
		text = m.latestReply()
	}
	if text == "" {
		return func() tea.Msg {
			return ttsDoneMsg{err: fmt.Errorf("nothing to read aloud")}
		}
	}

	client := m.client
	ttsModel := m.cfg.TTS.Model
	timeout := time.Duration(m.cfg.Defaults.SendTimeout) * time.Second
	outDir := m.exportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		audio, err := client.Synthesize(ctx, text, ttsModel)
		if err != nil {
			return ttsDoneMsg{err: err}
		}

		dir := filepath.Join(outDir, "audio")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ttsDoneMsg{err: err}
		}
		path := filepath.Join(dir, time.Now().Format("20060102-150405")+".mp3")
		if err := os.WriteFile(path, audio, 0644); err != nil {
			return ttsDoneMsg{err: err}
		}
		return ttsDoneMsg{path: path}
	}
}

func (m Model) exportCmd(modelID string) tea.Cmd {
	conv, ok := m.store.Snapshot(modelID)
	if !ok {
		return func() tea.Msg {
			return exportDoneMsg{err: fmt.Errorf("unknown model: %s", modelID)}
		}
	}
	tr := &export.Transcript{
		ModelID:   modelID,
		ModelName: m.registry.Name(modelID),
		Messages:  conv.Messages,
	}
	outDir := m.exportDir
	return func() tea.Msg {
		path, err := export.Write(tr, outDir)
		return exportDoneMsg{path: path, err: err}
	}
}

// latestReply returns the newest terminal assistant reply in the focused
// conversation.
func (m Model) latestReply() string {
	modelID := m.focusedModel()
	if modelID == "" {
		return ""
	}
	conv, ok := m.store.Snapshot(modelID)
	if !ok {
		return ""
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.Role == chat.RoleAssistant && !chat.IsThinking(msg.ID) && !chat.IsError(msg.ID) && !msg.Forwarded {
			return msg.Content
		}
	}
	return ""
}

// Focus and layout

func (m Model) selectedModels() []string {
	return m.registry.Selected()
}

func (m Model) focusedModel() string {
	selected := m.selectedModels()
	if len(selected) == 0 {
		return ""
	}
	if m.focus >= len(selected) {
		return selected[len(selected)-1]
	}
	return selected[m.focus]
}

// moveFocus shifts the focused column, stashing the current draft so each
// conversation keeps its own input, as in the per-model web inputs.
func (m *Model) moveFocus(delta int) {
	n := len(m.selectedModels())
	if n == 0 {
		return
	}
	if prev := m.focusedModel(); prev != "" {
		m.store.SetInput(prev, m.input.Value())
	}
	m.focus = ((m.focus+delta)%n + n) % n
	if next := m.focusedModel(); next != "" {
		if conv, ok := m.store.Snapshot(next); ok {
			m.input.SetValue(conv.InputValue)
		}
	}
}

func (m *Model) clampFocus() {
	n := len(m.selectedModels())
	if n == 0 {
		m.focus = 0
	} else if m.focus >= n {
		m.focus = n - 1
	}
}

func (m *Model) rebuildRenderer() {
	width := m.columnWidth()
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

func (m Model) columnWidth() int {
	n := len(m.selectedModels())
	if n == 0 {
		n = 1
	}
	w := m.width/n - 2 // border
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) columnHeight() int {
	h := m.height - 6 // header, input, status, borders
	if h < 5 {
		h = 5
	}
	return h
}

// layoutColumns sizes one viewport per selected model, creating missing
// ones as the selection changes.
func (m *Model) layoutColumns() {
	width, height := m.columnWidth(), m.columnHeight()
	for _, id := range m.selectedModels() {
		vp, ok := m.viewports[id]
		if !ok {
			vp = viewport.New(width, height)
			vp.MouseWheelEnabled = true
		} else {
			vp.Width = width
			vp.Height = height
		}
		m.viewports[id] = vp
	}
	m.rebuildRenderer()
}

// refreshColumns re-renders every visible conversation from the store.
func (m *Model) refreshColumns() {
	for _, id := range m.selectedModels() {
		conv, ok := m.store.Snapshot(id)
		if !ok {
			continue
		}
		vp, ok := m.viewports[id]
		if !ok {
			continue
		}
		vp.SetContent(renderMessages(conv, m.registry.Name(id), m.accentIndex(id), vp.Width, m.renderer))
		vp.GotoBottom()
		m.viewports[id] = vp
	}
}

// accentIndex returns a model's stable position in registry order, so its
// color does not shift as other models are toggled.
func (m Model) accentIndex(modelID string) int {
	for i, d := range m.registry.All() {
		if d.ID == modelID {
			return i
		}
	}
	return 0
}

func (m Model) busy() bool {
	for _, id := range m.selectedModels() {
		if conv, ok := m.store.Snapshot(id); ok && conv.IsLoading {
			return true
		}
	}
	return false
}

// View

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.menuOpen {
		return m.menu.Render(m.width, m.height)
	}

	selected := m.selectedModels()
	if len(selected) == 0 {
		empty := DimStyle.Render("No models selected. Press Ctrl+M to pick models.")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, empty)
	}

	columns := make([]string, 0, len(selected))
	for i, id := range selected {
		vp := m.viewports[id]
		conv, _ := m.store.Snapshot(id)

		header := columnHeader(m.registry.Name(id), m.accentIndex(id), conv.IsLoading, m.spin.View(), vp.Width)
		body := lipgloss.JoinVertical(lipgloss.Left, header, vp.View())

		box := InactiveBox
		if i == m.focus {
			box = ActiveBox
		}
		columns = append(columns, box.Width(vp.Width).Render(body))
	}

	grid := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	statusLine := m.status
	if statusLine == "" && m.busy() {
		statusLine = m.spin.View() + " waiting for replies"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		grid,
		m.input.View(),
		DimStyle.Render(statusLine),
	)
}

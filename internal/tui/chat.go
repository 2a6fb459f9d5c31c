package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/focusflow/internal/chat"
)

const chatTimeout = 90 * time.Second

type chatMessage struct {
	fromUser bool
	text     string
	flagged  bool
}

// chatReplyMsg carries a reply; gen ties it to the conversation that asked.
type chatReplyMsg struct {
	gen  int
	resp chat.Response
	err  error
}

type chatPane struct {
	asker    chat.Asker
	provider string
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	messages []chatMessage
	pending  bool
	gen      int
}

func newChatPane(asker chat.Asker, provider string) *chatPane {
	input := textinput.New()
	input.Prompt = "ask> "
	input.Placeholder = "question about the current topic"
	input.CharLimit = 500
	return &chatPane{
		asker:    asker,
		provider: provider,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport: viewport.New(0, 0),
	}
}

// reset drops the conversation; replies still in flight are discarded.
func (p *chatPane) reset() {
	p.messages = nil
	p.pending = false
	p.gen++
}

func (p *chatPane) send(topic string) tea.Cmd {
	text := strings.TrimSpace(p.input.Value())
	if text == "" || p.pending {
		return nil
	}
	p.input.SetValue("")
	p.messages = append(p.messages, chatMessage{fromUser: true, text: text})
	p.pending = true
	p.gen++
	gen := p.gen
	req := chat.Request{Message: text, Topic: topic, Provider: p.provider}
	asker := p.asker
	ask := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()
		resp, err := asker.Ask(ctx, req)
		return chatReplyMsg{gen: gen, resp: resp, err: err}
	}
	return tea.Batch(ask, p.spinner.Tick)
}

func (p *chatPane) receive(msg chatReplyMsg) {
	if msg.gen != p.gen {
		return
	}
	p.pending = false
	if msg.err != nil {
		p.messages = append(p.messages, chatMessage{text: fmt.Sprintf("error: %v", msg.err)})
		return
	}
	flagged := msg.resp.Meta != nil && msg.resp.Meta.Flagged
	p.messages = append(p.messages, chatMessage{text: msg.resp.Reply, flagged: flagged})
}

func (p *chatPane) render(s styles, width, height int) string {
	if width <= 0 {
		width = 60
	}
	if height < 3 {
		height = 3
	}
	textWidth := width - 6
	if textWidth < 10 {
		textWidth = 10
	}
	lines := make([]string, 0, len(p.messages))
	for _, msg := range p.messages {
		switch {
		case msg.fromUser:
			lines = append(lines, s.chatUser.Render("you  ")+wrapText(msg.text, textWidth, s.text))
		case msg.flagged:
			lines = append(lines, s.chatBot.Render("tutor")+" "+wrapText(msg.text, textWidth, s.warn))
		default:
			lines = append(lines, s.chatBot.Render("tutor")+" "+wrapText(msg.text, textWidth, s.text))
		}
	}
	p.viewport.Width = width
	p.viewport.Height = height - 2
	p.viewport.SetContent(strings.Join(lines, "\n"))
	p.viewport.GotoBottom()

	status := ""
	if p.pending {
		status = p.spinner.View() + s.muted.Render(" thinking...")
	}
	p.input.Width = width - len(p.input.Prompt) - 1
	return p.viewport.View() + "\n" + status + "\n" + p.input.View()
}

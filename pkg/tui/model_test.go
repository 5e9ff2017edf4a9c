package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/history"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

type fakeSubmitter struct {
	turns   []history.Turn
	prompts []string
}

func (f *fakeSubmitter) Submit(_ context.Context, prompt string) (*conversation.Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, conversation.ErrEmptyInput
	}
	f.prompts = append(f.prompts, prompt)
	reply := "echo: " + prompt
	f.turns = append(f.turns, history.UserTurn(prompt), history.AssistantTurn(reply))
	return &conversation.Result{Tool: tool.AskLLM, Reply: reply}, nil
}

func (f *fakeSubmitter) History() []history.Turn {
	return append([]history.Turn(nil), f.turns...)
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func pressEnter(m Model) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

var _ = Describe("Model", func() {
	var (
		ctx       context.Context
		submitter *fakeSubmitter
		m         Model
	)

	BeforeEach(func() {
		ctx = context.Background()
		submitter = &fakeSubmitter{turns: []history.Turn{
			history.UserTurn("earlier"),
			history.AssistantTurn("from a previous session"),
		}}
		m = New(ctx, submitter, Options{GlamourStyle: "notty"})
		next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		m = next.(Model)
	})

	It("shows the history it was started with", func() {
		Expect(m.View()).To(ContainSubstring("earlier"))
		Expect(m.View()).To(ContainSubstring("from a previous session"))
	})

	It("ignores enter on an empty input", func() {
		m, cmd := pressEnter(typeText(m, "   "))
		Expect(cmd).To(BeNil())
		Expect(m.Busy()).To(BeFalse())
		Expect(submitter.prompts).To(BeEmpty())
	})

	It("disables submitting while a reply is outstanding", func() {
		m = typeText(m, "first")
		m, cmd := pressEnter(m)
		Expect(cmd).NotTo(BeNil())
		Expect(m.Busy()).To(BeTrue())
		Expect(m.input.Focused()).To(BeFalse())

		// Keystrokes and a second enter are ignored until the reply lands.
		m = typeText(m, "second")
		Expect(m.input.Value()).To(BeEmpty())
		m, cmd = pressEnter(m)
		Expect(cmd).To(BeNil())
		Expect(m.status).To(ContainSubstring("still waiting"))
	})

	It("submits the prompt and renders the reply", func() {
		m, _ = pressEnter(typeText(m, "hello"))
		Expect(m.View()).To(ContainSubstring("waiting for reply"))

		msg := m.submit("hello")()
		Expect(submitter.prompts).To(Equal([]string{"hello"}))

		next, _ := m.Update(msg)
		m = next.(Model)
		Expect(m.Busy()).To(BeFalse())
		Expect(m.input.Focused()).To(BeTrue())
		Expect(m.View()).To(ContainSubstring("echo: hello"))
		Expect(m.status).To(ContainSubstring("ask_llm"))
	})

	It("reports failures and saved artifacts in the status line", func() {
		m.finish(submitResultMsg{result: &conversation.Result{Failure: conversation.DispatchFailure}})
		Expect(m.status).To(Equal("dispatch failed"))

		m.finish(submitResultMsg{result: &conversation.Result{ArtifactPath: "out/generated_code.python"}})
		Expect(m.status).To(Equal("saved out/generated_code.python"))

		m.finish(submitResultMsg{result: &conversation.Result{ArtifactErr: errors.New("permission denied")}})
		Expect(m.status).To(Equal("file not saved: permission denied"))
	})

	It("quits on escape", func() {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.Quit()))
	})

	It("waits for a pending reply before quitting", func() {
		m, _ = pressEnter(typeText(m, "hello"))

		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		m = next.(Model)
		Expect(cmd).To(BeNil())
		Expect(m.Busy()).To(BeTrue())
		Expect(m.status).To(ContainSubstring("press again"))
		Expect(m.ctx.Err()).NotTo(HaveOccurred())

		next, cmd = m.Update(m.submit("hello")())
		m = next.(Model)
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.Quit()))
		Expect(submitter.turns).To(HaveLen(4))
		Expect(m.ctx.Err()).NotTo(HaveOccurred())
	})

	It("abandons a pending reply on a second quit", func() {
		m, _ = pressEnter(typeText(m, "hello"))

		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m = next.(Model)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.Quit()))
		Expect(m.ctx.Err()).To(MatchError(context.Canceled))
	})
})

var _ = Describe("RunLines", func() {
	It("answers each non-blank line in order", func() {
		submitter := &fakeSubmitter{}
		var out bytes.Buffer

		err := RunLines(context.Background(), strings.NewReader("one\n\n  \ntwo\n"), &out, submitter)
		Expect(err).NotTo(HaveOccurred())
		Expect(submitter.prompts).To(Equal([]string{"one", "two"}))
		Expect(out.String()).To(Equal("echo: one\necho: two\n"))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := RunLines(ctx, strings.NewReader("one\n"), &bytes.Buffer{}, &fakeSubmitter{})
		Expect(err).To(MatchError(context.Canceled))
	})
})

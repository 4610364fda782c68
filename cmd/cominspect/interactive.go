package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iface"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxEvents = 8

// handle is an interface pointer held by the inspector together with the
// references it owns.
type handle struct {
	iface *iface.Descriptor
	class string
	ptr   com.Ptr
	refs  int
}

type modelState int

const (
	stateList modelState = iota
	stateMethods
	stateQuery
	stateInputArgs
	stateShowResult
)

type inspectorModel struct {
	ctx      context.Context
	err      error
	cat      *catalog
	cancel   func()
	result   string
	classes  []*com.Class
	handles  []*handle
	events   []string
	slots    []iface.Slot
	queries  []*iface.Descriptor
	inputs   []textinput.Model
	selected int
	cursor   int // within slots or queries
	focusIdx int
	state    modelState
}

func newInspectorModel(ctx context.Context, cat *catalog) *inspectorModel {
	m := &inspectorModel{
		ctx:     ctx,
		cat:     cat,
		classes: cat.space.Classes(),
		state:   stateList,
	}
	m.cancel = cat.space.Subscribe(com.ObserverFunc(m.record))
	return m
}

func (m *inspectorModel) record(e com.Event) {
	line := fmt.Sprintf("%-11s %s @%d count=%d", e.Type, e.Class, e.Ptr, e.Count)
	if e.Type == com.EventQuery {
		line += " " + e.HR.String()
	}
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) rows() int {
	return len(m.classes) + len(m.handles)
}

// current returns the selected handle, or nil when a class row is selected.
func (m *inspectorModel) current() *handle {
	i := m.selected - len(m.classes)
	if i < 0 || i >= len(m.handles) {
		return nil
	}
	return m.handles[i]
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateInputArgs {
		switch key.String() {
		case "ctrl+c":
			return m, m.quit()
		case "enter":
			m.call()
			return m, nil
		case "esc":
			m.state = stateMethods
			m.inputs = nil
			return m, nil
		case "tab":
			if len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}
			return m, nil
		}
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, m.quit()

	case "up", "k":
		m.move(-1)

	case "down", "j":
		m.move(1)

	case "a":
		if h := m.current(); h != nil && m.state == stateList {
			m.addRef(h)
		}

	case "r":
		if h := m.current(); h != nil && m.state == stateList {
			m.release(h)
		}

	case "i":
		if h := m.current(); h != nil && m.state == stateList {
			m.queries = m.queryTargets(h)
			m.cursor = 0
			m.state = stateQuery
		}

	case "enter":
		m.enter()

	case "esc":
		switch m.state {
		case stateMethods, stateQuery:
			m.state = stateList
		case stateShowResult:
			m.state = stateMethods
		}
		m.err = nil
	}
	return m, nil
}

func (m *inspectorModel) move(delta int) {
	switch m.state {
	case stateList:
		m.selected = clamp(m.selected+delta, m.rows())
	case stateMethods:
		m.cursor = clamp(m.cursor+delta, len(m.slots))
	case stateQuery:
		m.cursor = clamp(m.cursor+delta, len(m.queries))
	}
}

func clamp(v, n int) int {
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (m *inspectorModel) enter() {
	m.err = nil
	switch m.state {
	case stateList:
		if m.selected < len(m.classes) {
			m.construct(m.classes[m.selected])
			return
		}
		if h := m.current(); h != nil {
			l, err := m.cat.space.Compiler().Compile(h.iface)
			if err != nil {
				m.err = err
				return
			}
			m.slots = l.Slots[iface.RootSlots:]
			m.cursor = 0
			m.state = stateMethods
		}

	case stateMethods:
		if len(m.slots) == 0 {
			return
		}
		if err := m.prepareInputs(); err != nil {
			m.err = err
			return
		}
		if len(m.inputs) == 0 {
			m.call()
			return
		}
		m.state = stateInputArgs

	case stateQuery:
		if len(m.queries) > 0 {
			m.query(m.current(), m.queries[m.cursor])
		}
		m.state = stateList

	case stateShowResult:
		m.state = stateMethods
	}
}

func (m *inspectorModel) construct(class *com.Class) {
	obj, err := class.New()
	if err != nil {
		m.err = err
		return
	}
	p := obj.Interface(0)
	if _, err := p.AddRef(m.ctx); err != nil {
		m.err = err
		return
	}
	m.handles = append(m.handles, &handle{
		ptr:   p,
		iface: class.Layout().Interfaces[0].Interface,
		class: class.Name(),
		refs:  1,
	})
	m.selected = len(m.classes) + len(m.handles) - 1
}

func (m *inspectorModel) addRef(h *handle) {
	if _, err := h.ptr.AddRef(m.ctx); err != nil {
		m.err = err
		return
	}
	h.refs++
}

func (m *inspectorModel) release(h *handle) {
	if _, err := h.ptr.Release(m.ctx); err != nil {
		m.err = err
		return
	}
	h.refs--
	if h.refs > 0 {
		return
	}
	for i, other := range m.handles {
		if other == h {
			m.handles = append(m.handles[:i], m.handles[i+1:]...)
			break
		}
	}
	m.selected = clamp(m.selected, m.rows())
}

// queryTargets lists IUnknown and every interface in the chains the
// object implements.
func (m *inspectorModel) queryTargets(h *handle) []*iface.Descriptor {
	out := []*iface.Descriptor{iface.IUnknown}
	obj, ok := h.ptr.Object()
	if !ok {
		return out
	}
	seen := map[*iface.Descriptor]bool{iface.IUnknown: true}
	for _, l := range obj.Class().Layout().Interfaces {
		for _, d := range l.Chain {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

func (m *inspectorModel) query(h *handle, d *iface.Descriptor) {
	if h == nil {
		return
	}
	p, err := h.ptr.QueryInterface(m.ctx, d.IID)
	if err != nil {
		m.err = err
		return
	}
	m.handles = append(m.handles, &handle{ptr: p, iface: d, class: h.class, refs: 1})
	m.selected = len(m.classes) + len(m.handles) - 1
}

func (m *inspectorModel) prepareInputs() error {
	s := m.slots[m.cursor]
	m.inputs = make([]textinput.Model, len(s.Method.Params))
	for i, p := range s.Method.Params {
		placeholder := "ptr"
		if !p.Ptr {
			if _, ok, _ := flatValue("0", p.Type); !ok {
				m.inputs = nil
				return fmt.Errorf("parameter %s: %s cannot be entered", p.Name, typeName(p.Type))
			}
			placeholder = typeName(p.Type)
		}
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.Prompt = p.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
	return nil
}

func (m *inspectorModel) call() {
	// a fatal object model error must not tear down the terminal
	defer func() {
		if r := recover(); r != nil {
			m.showResult("", fmt.Errorf("%v", r))
		}
	}()

	h := m.current()
	s := m.slots[m.cursor]
	args := make([]uint64, len(m.inputs))
	for i, input := range m.inputs {
		p := s.Method.Params[i]
		if p.Ptr {
			v, err := strconv.ParseUint(strings.TrimSpace(input.Value()), 0, 32)
			if err != nil {
				m.showResult("", fmt.Errorf("%s: %w", p.Name, err))
				return
			}
			args[i] = v
			continue
		}
		v, _, err := flatValue(input.Value(), p.Type)
		if err != nil {
			m.showResult("", fmt.Errorf("%s: %w", p.Name, err))
			return
		}
		args[i] = v
	}

	res, err := h.ptr.Invoke(m.ctx, s.Index, args...)
	if err != nil {
		m.showResult("", err)
		return
	}
	m.showResult(formatResult(s.Method.Result, res), nil)
}

func (m *inspectorModel) showResult(result string, err error) {
	m.result = result
	m.err = err
	m.inputs = nil
	m.state = stateShowResult
}

func (m *inspectorModel) quit() tea.Cmd {
	for _, h := range m.handles {
		for ; h.refs > 0; h.refs-- {
			_, _ = h.ptr.Release(m.ctx)
		}
	}
	m.handles = nil
	m.cancel()
	return tea.Quit
}

// flatValue parses text as a scalar of type t and flattens it.
func flatValue(text string, t wit.Type) (uint64, bool, error) {
	text = strings.TrimSpace(text)
	switch t.(type) {
	case wit.Bool:
		v, err := strconv.ParseBool(text)
		return com.BoolArg(v), true, err
	case wit.U8, wit.U16, wit.U32:
		v, err := strconv.ParseUint(text, 0, 32)
		return v, true, err
	case wit.U64:
		v, err := strconv.ParseUint(text, 0, 64)
		return v, true, err
	case wit.S8, wit.S16, wit.S32:
		v, err := strconv.ParseInt(text, 0, 32)
		return api.EncodeI32(int32(v)), true, err
	case wit.S64:
		v, err := strconv.ParseInt(text, 0, 64)
		return uint64(v), true, err
	case wit.F32:
		v, err := strconv.ParseFloat(text, 32)
		return api.EncodeF32(float32(v)), true, err
	case wit.F64:
		v, err := strconv.ParseFloat(text, 64)
		return api.EncodeF64(v), true, err
	case wit.Char:
		r, size := utf8.DecodeRuneInString(text)
		if size == 0 || size != len(text) {
			return 0, true, fmt.Errorf("want exactly one character")
		}
		return uint64(r), true, nil
	default:
		return 0, false, nil
	}
}

func formatResult(t wit.Type, res []uint64) string {
	if t == nil || len(res) == 0 {
		return "done"
	}
	v := res[0]
	switch t.(type) {
	case wit.S32:
		return hresult.FromUint64(v).String()
	case wit.Bool:
		return strconv.FormatBool(v != 0)
	case wit.S8, wit.S16:
		return strconv.Itoa(int(api.DecodeI32(v)))
	case wit.S64:
		return strconv.FormatInt(int64(v), 10)
	case wit.F32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case wit.F64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	case wit.Char:
		return strconv.QuoteRune(rune(v))
	default:
		return strconv.FormatUint(v, 10)
	}
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("COM Inspector"))
	b.WriteString(" ")
	b.WriteString(m.cat.source)
	stats := m.cat.space.Heap().Stats()
	b.WriteString(helpStyle.Render(fmt.Sprintf("  heap %d blocks, %d/%d bytes",
		stats.LiveBlocks, stats.LiveBytes, stats.Capacity)))
	b.WriteString("\n\n")

	switch m.state {
	case stateList:
		b.WriteString("Classes:\n")
		for i, c := range m.classes {
			line := fmt.Sprintf("new %s (%d live)", funcStyle.Render(c.Name()), c.Live())
			m.writeRow(&b, i == m.selected, line)
		}
		b.WriteString("\nHeld pointers:\n")
		if len(m.handles) == 0 {
			b.WriteString(helpStyle.Render("  none"))
			b.WriteString("\n")
		}
		for i, h := range m.handles {
			m.writeRow(&b, len(m.classes)+i == m.selected, m.formatHandle(h))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter new/methods • a add-ref • r release • i query • q quit"))

	case stateMethods:
		h := m.current()
		b.WriteString(fmt.Sprintf("Methods of %s:\n\n", m.formatHandle(h)))
		if len(m.slots) == 0 {
			b.WriteString(helpStyle.Render("  no methods beyond IUnknown"))
			b.WriteString("\n")
		}
		for i, s := range m.slots {
			m.writeRow(&b, i == m.cursor, formatSlot(s))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateQuery:
		b.WriteString("Query for:\n\n")
		for i, d := range m.queries {
			m.writeRow(&b, i == m.cursor, d.String())
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter query • esc back"))

	case stateInputArgs:
		s := m.slots[m.cursor]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(s.Method.Name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		s := m.slots[m.cursor]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(s.Method.Name)))
		if m.err == nil {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if len(m.events) > 0 {
		b.WriteString("\n\nEvents:\n")
		for _, e := range m.events {
			b.WriteString(helpStyle.Render("  " + e))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *inspectorModel) writeRow(b *strings.Builder, selected bool, line string) {
	if selected {
		b.WriteString(selectedStyle.Render("> " + line))
	} else {
		b.WriteString("  " + line)
	}
	b.WriteString("\n")
}

func (m *inspectorModel) formatHandle(h *handle) string {
	if h == nil {
		return ""
	}
	count := "?"
	if obj, ok := h.ptr.Object(); ok {
		count = strconv.FormatUint(uint64(obj.RefCount()), 10)
	}
	return fmt.Sprintf("%s as %s @%d refs=%d count=%s",
		h.class, typeStyle.Render(h.iface.Name), h.ptr.Addr(), h.refs, count)
}

func formatSlot(s iface.Slot) string {
	var params []string
	for _, p := range s.Method.Params {
		t := "ptr"
		if !p.Ptr {
			t = typeName(p.Type)
		}
		params = append(params, p.Name+": "+typeStyle.Render(t))
	}
	result := ""
	if s.Method.Result != nil {
		result = " -> " + typeStyle.Render(typeName(s.Method.Result))
	}
	return fmt.Sprintf("[%d] %s(%s)%s", s.Index, funcStyle.Render(s.Method.Name), strings.Join(params, ", "), result)
}

func runInteractive(ctx context.Context, cat *catalog) error {
	p := tea.NewProgram(newInspectorModel(ctx, cat), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

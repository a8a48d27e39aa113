package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	SelectPrevNode key.Binding
	SelectNextNode key.Binding
	SelectParent   key.Binding
	FocusInput     key.Binding
	UnfocusInput   key.Binding
	SubmitMessage  key.Binding
	BranchFromText key.Binding

	Branch       key.Binding
	Delete       key.Binding
	Toggle       key.Binding
	CycleModel   key.Binding
	PanLeft      key.Binding
	PanRight     key.Binding
	PanUp        key.Binding
	PanDown      key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	ResetView    key.Binding
	FitToContent key.Binding
	SaveToFile   key.Binding

	DismissError key.Binding
	Help         key.Binding
	Leave        key.Binding
	Quit         key.Binding
}

var DefaultKeyMap = KeyMap{
	SelectPrevNode: key.NewBinding(key.WithKeys("shift+tab", "k"), key.WithHelp("shift+tab", "previous node")),
	SelectNextNode: key.NewBinding(key.WithKeys("tab", "j"), key.WithHelp("tab", "next node")),
	SelectParent:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parent")),
	FocusInput:     key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "write")),
	UnfocusInput:   key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "back to canvas")),
	SubmitMessage:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	BranchFromText: key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "branch from text")),

	Branch:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "branch")),
	Delete:       key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete subtree")),
	Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand")),
	CycleModel:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "next model")),
	PanLeft:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→/↑/↓", "pan")),
	PanRight:     key.NewBinding(key.WithKeys("right", "l")),
	PanUp:        key.NewBinding(key.WithKeys("up")),
	PanDown:      key.NewBinding(key.WithKeys("down")),
	ZoomIn:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
	ZoomOut:      key.NewBinding(key.WithKeys("-")),
	ResetView:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
	FitToContent: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
	SaveToFile:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "export")),

	DismissError: key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "dismiss")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Leave:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	Quit:         key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SelectNextNode, k.FocusInput, k.SubmitMessage, k.UnfocusInput, k.Branch, k.Help, k.Leave}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SelectNextNode, k.SelectPrevNode, k.SelectParent},
		{k.FocusInput, k.SubmitMessage, k.BranchFromText, k.UnfocusInput},
		{k.Branch, k.Delete, k.Toggle, k.CycleModel},
		{k.PanLeft, k.ZoomIn, k.ResetView, k.FitToContent},
		{k.SaveToFile, k.DismissError, k.Help, k.Leave, k.Quit},
	}
}

// Package ui previews hex grids in a terminal using tcell.
package ui

import "github.com/gdamore/tcell/v2"

// Canvas is the drawing surface the renderer writes to.
type Canvas interface {
	Clear()
	Show()
	Size() (width, height int)
	SetContent(x, y int, r rune, style tcell.Style)
}

// Action is a viewer command decoded from terminal input.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionPan
	ActionRegenerate
	ActionRedraw
)

// Input is one decoded event. DCol and DRow are set for ActionPan.
type Input struct {
	Action     Action
	DCol, DRow int
}

var panKeys = map[tcell.Key][2]int{
	tcell.KeyLeft:  {-1, 0},
	tcell.KeyRight: {1, 0},
	tcell.KeyUp:    {0, -1},
	tcell.KeyDown:  {0, 1},
}

// Screen is the terminal canvas for hexview.
type Screen struct {
	screen tcell.Screen
}

// NewScreen takes over the terminal.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return attach(s)
}

func attach(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.Clear()
	return &Screen{screen: s}, nil
}

// Close restores the terminal.
func (s *Screen) Close() {
	s.screen.Fini()
}

// NextInput blocks for the next event the viewer cares about. A resize is
// synced here and reported as ActionRedraw. A finalized screen reads as quit.
func (s *Screen) NextInput() Input {
	switch ev := s.screen.PollEvent().(type) {
	case nil:
		return Input{Action: ActionQuit}
	case *tcell.EventResize:
		s.screen.Sync()
		return Input{Action: ActionRedraw}
	case *tcell.EventKey:
		return decodeKey(ev)
	}
	return Input{}
}

func decodeKey(ev *tcell.EventKey) Input {
	if d, ok := panKeys[ev.Key()]; ok {
		return Input{Action: ActionPan, DCol: d[0], DRow: d[1]}
	}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Input{Action: ActionQuit}
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return Input{Action: ActionQuit}
		case 'n':
			return Input{Action: ActionRegenerate}
		}
	}
	return Input{}
}

func (s *Screen) Clear() {
	s.screen.Clear()
}

func (s *Screen) Show() {
	s.screen.Show()
}

func (s *Screen) SetContent(x, y int, r rune, style tcell.Style) {
	s.screen.SetContent(x, y, r, nil, style)
}

func (s *Screen) Size() (width, height int) {
	return s.screen.Size()
}

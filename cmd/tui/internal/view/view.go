package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CommonModel holds the terminal size; views size their widgets from it.
type CommonModel struct {
	Width  int
	Height int
}

func (c *CommonModel) resize(msg tea.WindowSizeMsg) {
	c.Width = msg.Width
	c.Height = msg.Height
}

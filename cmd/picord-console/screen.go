// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/picord/picord/terminal"
)

// consoleChannel is the only channel of the console transport.
const consoleChannel terminal.ChannelID = "console"

// maxLiveBlocks bounds how many recent blocks stay editable. Older
// blocks are left on screen as they were last drawn.
const maxLiveBlocks = 8

type block struct {
	id   terminal.MessageID
	text string
}

// screen is a terminal.Transport that draws messages to a character
// terminal. In place mode keeps the most recent blocks editable by
// moving the cursor back over them and redrawing. Otherwise every send
// and edit is appended, which suits pipes and log files.
type screen struct {
	mutex   sync.Mutex
	out     io.Writer
	width   int
	inPlace bool

	live   []block
	drawn  int
	nextID int
}

func newScreen(out io.Writer, width int, inPlace bool) *screen {
	if width <= 0 {
		width = 80
	}
	return &screen{out: out, width: width, inPlace: inPlace}
}

func (s *screen) Send(_ context.Context, _ terminal.ChannelID, text string, _ terminal.MessageID) (terminal.MessageID, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.newID()
	if !s.inPlace {
		return id, s.appendText(text)
	}
	s.live = append(s.live, block{id: id, text: displayText(text)})
	return id, s.redraw()
}

func (s *screen) Edit(_ context.Context, _ terminal.ChannelID, message terminal.MessageID, text string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.inPlace {
		return s.appendText(text)
	}
	for i := range s.live {
		if s.live[i].id == message {
			s.live[i].text = displayText(text)
			return s.redraw()
		}
	}
	// Scrolled out of the live region: draw the new version below.
	s.live = append(s.live, block{id: message, text: displayText(text)})
	return s.redraw()
}

func (s *screen) Delete(_ context.Context, _ terminal.ChannelID, message terminal.MessageID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.live {
		if s.live[i].id == message {
			s.live = append(s.live[:i], s.live[i+1:]...)
			return s.redraw()
		}
	}
	return nil
}

// noteInput records a line the operator typed and returns its message
// ID. In place mode the line is already on screen (echoed by the line
// editor), so it joins the live region without being drawn again.
func (s *screen) noteInput(echo string) terminal.MessageID {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.newID()
	if s.inPlace {
		s.live = append(s.live, block{id: id, text: echo})
		s.drawn += s.lineCount(echo)
		s.commit()
	}
	return id
}

func (s *screen) newID() terminal.MessageID {
	s.nextID++
	return terminal.MessageID(fmt.Sprintf("$console%d", s.nextID))
}

func (s *screen) appendText(text string) error {
	_, err := io.WriteString(s.out, displayText(text)+"\n")
	return err
}

// redraw erases the live region and draws it again.
func (s *screen) redraw() error {
	var builder strings.Builder
	if s.drawn > 0 {
		builder.WriteString("\r")
		builder.WriteString(ansi.CursorUp(s.drawn))
	}
	builder.WriteString(ansi.EraseScreenBelow)

	drawn := 0
	for _, live := range s.live {
		builder.WriteString(live.text)
		builder.WriteString("\n")
		drawn += s.lineCount(live.text)
	}
	s.drawn = drawn
	s.commit()

	_, err := io.WriteString(s.out, builder.String())
	return err
}

// commit drops the oldest blocks beyond maxLiveBlocks from the live
// region. Their lines stay on screen above it.
func (s *screen) commit() {
	for len(s.live) > maxLiveBlocks {
		s.drawn -= s.lineCount(s.live[0].text)
		s.live = s.live[1:]
	}
}

// lineCount is the number of screen rows text occupies at the current
// width, counting wrapped lines.
func (s *screen) lineCount(text string) int {
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		width := ansi.StringWidth(line)
		if width == 0 {
			rows++
			continue
		}
		rows += (width + s.width - 1) / s.width
	}
	return rows
}

// displayText turns message markdown into what a terminal shows: code
// fence lines and bold markers are dropped.
func displayText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			continue
		}
		kept = append(kept, strings.ReplaceAll(line, "**", ""))
	}
	return strings.Join(kept, "\n")
}

var _ terminal.Transport = (*screen)(nil)

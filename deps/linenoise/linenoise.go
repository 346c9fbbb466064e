package linenoise

import (
	"bytes"
	"fmt"
	"os"

	"github.com/peterh/liner"
)

// LineNoise is a liner state with file backed history.
type LineNoise struct {
	*liner.State
}

// New puts the terminal in raw mode; Close must be called to restore it.
func New() *LineNoise {
	ln := &LineNoise{liner.NewLiner()}
	ln.SetCtrlCAborts(true)
	return ln
}

func (ln *LineNoise) HistoryLoad(filepath string) error {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return err
	}
	_, err = ln.ReadHistory(bytes.NewReader(content))
	return err
}

func (ln *LineNoise) HistorySave(filepath string) error {
	var buf bytes.Buffer
	if _, err := ln.WriteHistory(&buf); err != nil {
		return err
	}
	return os.WriteFile(filepath, buf.Bytes(), 0644)
}

func (ln *LineNoise) ClearScreen() error {
	_, err := fmt.Fprint(os.Stdout, "\x1b[H\x1b[2J")
	return err
}

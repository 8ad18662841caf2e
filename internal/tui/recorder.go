package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Recorder captures TUI state changes and renders for debugging.
type Recorder struct {
	logFile  *os.File
	frameDir string
	frameNum int
	enabled  bool
}

// NewRecorder creates a TUI state recorder. A disabled recorder is nil.
func NewRecorder(enabled bool) *Recorder {
	if !enabled {
		return nil
	}

	recordDir := filepath.Join(os.TempDir(), fmt.Sprintf("smsledger-tui-%d", time.Now().Unix()))
	if err := os.MkdirAll(recordDir, 0o750); err != nil {
		return nil
	}

	logFile, err := os.Create(filepath.Join(recordDir, "tui.log")) // #nosec G304 -- constructed path
	if err != nil {
		return nil
	}

	r := &Recorder{enabled: true, logFile: logFile, frameDir: recordDir}
	r.Log("TUI recorder started at %s", recordDir)
	return r
}

// Dir returns the frame directory.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.frameDir
}

// RecordState logs msg and writes the rendered frame.
func (r *Recorder) RecordState(m Model, msg tea.Msg) {
	if r == nil || !r.enabled {
		return
	}
	if _, ok := msg.(tickMsg); ok {
		return
	}

	r.frameNum++
	r.Log("\n=== Frame %d ===", r.frameNum)
	r.Log("Message: %T", msg)
	r.Log("Mode: %d background=%t events=%d", m.mode, m.background, len(m.events))
	if m.visible != nil {
		r.Log("Visible: %s (%s left)", m.visible.ID, m.remaining())
	}

	view := m.View()
	framePath := filepath.Join(r.frameDir, fmt.Sprintf("frame-%04d.txt", r.frameNum))
	if err := os.WriteFile(framePath, []byte(view), 0o600); err != nil {
		r.Log("Error saving frame: %v", err)
	}
}

// Log writes to the log file.
func (r *Recorder) Log(format string, args ...any) {
	if r == nil || !r.enabled || r.logFile == nil {
		return
	}
	if _, err := fmt.Fprintf(r.logFile, format+"\n", args...); err != nil {
		return
	}
	_ = r.logFile.Sync()
}

// Close closes the recorder.
func (r *Recorder) Close() {
	if r == nil || r.logFile == nil {
		return
	}
	r.Log("Recording complete. %d frames captured.", r.frameNum)
	_ = r.logFile.Close()
}

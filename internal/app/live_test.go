package app

import (
	"fmt"
	"os"
	"testing"

	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"

	tea "github.com/charmbracelet/bubbletea"
)

// TestLiveTUIFlow exercises the model against a running backend.
// Skipped unless DSPLAB_LIVE_URL is set.
func TestLiveTUIFlow(t *testing.T) {
	baseURL := os.Getenv("DSPLAB_LIVE_URL")
	if baseURL == "" {
		t.Skip("DSPLAB_LIVE_URL not set")
	}

	m := New(analyzer.Deps{Client: api.New(baseURL), OutputDir: t.TempDir()}, nil)

	// Simulate terminal size
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	if view == "Initializing..." {
		t.Error("view should render after WindowSizeMsg")
	}
	fmt.Println("=== Initial View ===")
	fmt.Println(view)

	m, _ = applyUpdate(m, healthCmd(m.deps.Client)())
	if !m.online {
		t.Fatalf("backend offline: %s", m.backendStatus)
	}
	fmt.Printf("Health: %s\n", m.backendStatus)

	// Generate with the default sliders
	m, cmd := applyUpdate(m, key(KeyGenerate))
	if cmd == nil {
		t.Fatal("generate returned no command")
	}
	m, _ = applyUpdate(m, cmd())
	if m.genWave == nil {
		t.Fatalf("generate failed: %s", m.notification.Text)
	}
	fmt.Println("=== After Generate ===")
	fmt.Println(m.View())

	// Voice tab has no file yet
	m, _ = applyUpdate(m, key(KeyTab))
	m, cmd = applyUpdate(m, key(KeyEnter))
	if cmd == nil {
		t.Fatal("analyze returned no command")
	}
	m, _ = applyUpdate(m, cmd())
	if m.notification.Text != "Please select a file first" {
		t.Errorf("notification = %q", m.notification.Text)
	}

	m, _ = applyUpdate(m, resetCmd(TabDoppler, m.doppler.Reset)())
	fmt.Println("=== After Reset ===")
	fmt.Println(m.View())
}

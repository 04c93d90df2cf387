package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"aterm/internal/ui"
)

// runBenchWithUI drives the worker function while a Bubble Tea model
// renders its progress events. The UI exits when the event channel
// closes; the worker error wins over UI errors.
func runBenchWithUI(title string, workers, target int, run func(chan<- ui.Event) error) error {
	events := make(chan ui.Event, 256)
	outcome := make(chan error, 1)

	go func() {
		outcome <- run(events)
		close(events)
	}()

	model := ui.NewProgressModel(title, workers, target, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	err := <-outcome
	if err != nil {
		return err
	}
	return uiErr
}

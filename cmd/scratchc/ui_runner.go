package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"scratchc/internal/driver"
	"scratchc/internal/ui"
)

type batchOutcome struct {
	result *driver.BatchResult
	err    error
}

// runBuildWithUI runs BuildAll while a progress view consumes its phase
// events on stdout.
func runBuildWithUI(ctx context.Context, title string, req driver.BatchRequest) (*driver.BatchResult, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		req.Observer = func(ev driver.PhaseEvent) { events <- ev }
		res, err := driver.BuildAll(ctx, req)
		outcomeCh <- batchOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Inputs, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// вьюха умерла, но сборку надо дождаться
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

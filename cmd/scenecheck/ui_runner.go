package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"scenecheck/internal/driver"
	"scenecheck/internal/ui"
)

type validateOutcome struct {
	result *driver.Result
	err    error
}

func runValidateWithUI(ctx context.Context, title string, req driver.Request) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan validateOutcome, 1)

	go func() {
		reqCopy := req
		reqCopy.Options.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Validate(ctx, reqCopy)
		outcomeCh <- validateOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Chapters, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// UI мог завершиться раньше драйвера; не даём ему заблокироваться на канале.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

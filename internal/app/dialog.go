package app

import (
	"github.com/sqweek/dialog"
	"go.uber.org/zap"
)

// openFileDialog shows a native file dialog to pick a model. The dialog
// blocks, so it runs on its own goroutine and the choice is handed to the
// main loop, which owns the viewer.
func (a *App) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("wexbim models", "wexbim").
			Filter("All Files", "*").
			Title("Open model").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				a.log.Warn("file dialog", zap.Error(err))
			}
			return
		}
		select {
		case a.opened <- filename:
		default:
			a.log.Warn("file dialog: a model is already waiting to open", zap.String("file", filename))
		}
	}()
}

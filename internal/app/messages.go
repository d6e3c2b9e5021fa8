package app

import "github.com/chmouel/prfiles/internal/changeset"

type (
	resolvedMsg struct {
		result *changeset.Result
		err    error
	}
	editorFinishedMsg struct {
		path string
		err  error
	}
)

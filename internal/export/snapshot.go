package export

import (
	"go.uber.org/zap"

	"github.com/Faultbox/nexus-export/internal/logger"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// Pass owns the temporary scene mutations of one per-object export and the
// undo list that reverses them. Every mutation stage registers a tagged
// restore action BEFORE mutating; Restore applies the actions in reverse
// registration order, each one isolated and best-effort, so scene state is
// back to the pre-pass original on every exit path.
type Pass struct {
	sc   *scene.Scene
	undo []restoreAction
}

type restoreAction struct {
	kind  string
	what  string
	apply func() error
}

func newPass(sc *scene.Scene) *Pass {
	return &Pass{sc: sc}
}

// record registers a restore action. kind tags the mutation category
// (transform, mesh, texture, material), what names the touched data block
// for the debug log.
func (p *Pass) record(kind, what string, apply func() error) {
	p.undo = append(p.undo, restoreAction{kind: kind, what: what, apply: apply})
}

// Restore unwinds all registered mutations in reverse order. A failing
// action is skipped with a debug log entry; it never stops the remaining
// restoration. The undo list is consumed, so Restore is safe to call twice.
func (p *Pass) Restore() {
	for i := len(p.undo) - 1; i >= 0; i-- {
		a := p.undo[i]
		if err := a.apply(); err != nil {
			logger.Debug("restore step skipped",
				zap.String("kind", a.kind),
				zap.String("target", a.what),
				zap.Error(err))
		}
	}
	p.undo = nil
}

package scan

import (
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

// Renderer expands Liquid placeholders in message templates read from the
// directory. Parsed templates are cached by source text.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a Renderer with the default Liquid engine.
func NewRenderer() *Renderer {
	return &Renderer{engine: liquid.NewEngine()}
}

// Render returns src rendered with bindings. A template that fails to parse
// or render is returned unchanged, so a message with stray braces is still
// delivered.
func (r *Renderer) Render(src string, bindings map[string]interface{}) string {
	var tpl *liquid.Template
	if cached, ok := r.cache.Load(src); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(src)
		if err != nil {
			logger.Warn("message template parse failed, sending verbatim", "error", err)
			return src
		}
		r.cache.Store(src, parsed)
		tpl = parsed
	}

	out, err := tpl.RenderString(bindings)
	if err != nil {
		logger.Warn("message template render failed, sending verbatim", "error", err)
		return src
	}
	return out
}

package modules

import (
	"eagle-eye.io/fieldagent/internal/api/handlers"
	"eagle-eye.io/fieldagent/internal/config"
)

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(cfg *config.Config, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{
		App: cfg.App,
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}

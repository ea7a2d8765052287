package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mkpages/mkpages/internal/config"
)

// Factory creates a fresh plugin instance for one build.
type Factory func() Plugin

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var global = &registry{factories: make(map[string]Factory)}

// Register installs a plugin factory. Built-in plugins call this from init;
// a duplicate name is a programming error and panics at startup.
func Register(f Factory) {
	if f == nil {
		panic("plugin: Register called with nil factory")
	}
	name := f().Name()
	global.mu.Lock()
	defer global.mu.Unlock()
	if _, exists := global.factories[name]; exists {
		panic(fmt.Sprintf("plugin: %q registered twice", name))
	}
	global.factories[name] = f
}

// Names lists the registered plugin names, sorted.
func Names() []string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	out := make([]string, 0, len(global.factories))
	for name := range global.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ForConfig instantiates the active plugins in config order and runs their
// OnConfig hooks. An OnConfig failure aborts with the plugin named.
func ForConfig(cfg *config.Config) ([]Plugin, error) {
	entries := cfg.ActivePlugins()
	plugins := make([]Plugin, 0, len(entries))
	for _, entry := range entries {
		global.mu.RLock()
		factory, ok := global.factories[entry.Name]
		global.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q (registered: %v)", entry.Name, Names())
		}
		p := factory()
		if err := p.OnConfig(cfg, entry); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

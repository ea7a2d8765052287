package theme

import (
	"fmt"
	"sort"
	"sync"
)

// registry holds the installed themes. Bundled themes install themselves
// from init in their own packages.
type registry struct {
	mu     sync.RWMutex
	themes map[string]Theme
}

var global = &registry{themes: make(map[string]Theme)}

// Register installs a theme under its name. Registering a nil theme or the
// same name twice is a programming error and panics at startup.
func Register(t Theme) {
	if t == nil {
		panic("theme: Register called with nil theme")
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if _, exists := global.themes[t.Name()]; exists {
		panic(fmt.Sprintf("theme: %q registered twice", t.Name()))
	}
	global.themes[t.Name()] = t
}

// Get returns the theme registered under name.
func Get(name string) (Theme, error) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	t, ok := global.themes[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (available: %v)", name, names())
	}
	return t, nil
}

// Names lists the registered theme names, sorted.
func Names() []string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return names()
}

func names() []string {
	out := make([]string, 0, len(global.themes))
	for name := range global.themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

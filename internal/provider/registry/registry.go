// Package registry maps provider names to constructors so the active
// search backends are picked by configuration, not code branching.
package registry

import (
	"github.com/coindxter/class-music/internal/provider"
)

var registry = map[string]provider.NewSearchFn{}

func Register(name string, fn provider.NewSearchFn) {
	registry[name] = fn
}

func Get(name string) provider.NewSearchFn {
	if fn, ok := registry[name]; ok {
		return fn
	}
	return nil
}

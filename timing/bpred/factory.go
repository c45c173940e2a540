package bpred

import (
	"fmt"
	"sort"
)

// Factory builds a base predictor for the given number of threads.
type Factory func(threads int) Predictor

var factories = map[string]Factory{
	"bimodal": func(int) Predictor {
		return NewBimodal(DefaultBimodalConfig())
	},
	"bimode": func(threads int) Predictor {
		return NewBiMode(DefaultBiModeConfig(), threads)
	},
}

// Register makes a factory available under name. It replaces any factory
// already registered under that name.
func Register(name string, f Factory) {
	factories[name] = f
}

// LookupFactory returns the factory registered under name.
func LookupFactory(name string) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown base predictor %q (have %v)", name, Names())
	}
	return f, nil
}

// Names returns the registered predictor names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

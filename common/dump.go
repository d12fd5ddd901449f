package common

import (
	"log"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = func() *spew.ConfigState {
	c := spew.NewDefaultConfig()
	c.DisableCapacities = true
	c.DisablePointerAddresses = true
	c.SortKeys = true
	return c
}()

// SDump renders values as an indented, deterministic debug string.
//
// Parameters:
//   - a: the values to render
//
// Returns:
//   - string: the rendered dump
func SDump(a ...any) string {
	return dumpConfig.Sdump(a...)
}

// LogDump writes SDump output to the standard logger under the given component tag.
//
// Parameters:
//   - tag: component tag printed in brackets before the dump
//   - a: the values to render
func LogDump(tag string, a ...any) {
	log.Printf("[%s]\n%s", tag, dumpConfig.Sdump(a...))
}

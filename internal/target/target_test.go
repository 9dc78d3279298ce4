package target

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allTargets() []Target {
	return []Target{C{}, Go{}, Rb{}, TS{}}
}

func TestEveryBackendIsStateless(t *testing.T) {
	// Calling the same method twice with the same arguments must yield
	// the same text: a cheap proxy for "no hidden mutable state".
	for _, tgt := range allTargets() {
		require.Equal(t, tgt.Push(3), tgt.Push(3))
		require.Equal(t, tgt.FnDefinition("fn0", "body"), tgt.FnDefinition("fn0", "body"))
	}
}

func TestGetNameIsUniquePerBackend(t *testing.T) {
	seen := map[byte]bool{}
	for _, tgt := range allTargets() {
		require.False(t, seen[tgt.GetName()], "duplicate target name %q", tgt.GetName())
		seen[tgt.GetName()] = true
	}
}

func TestEntryPointBracketsAreWellFormed(t *testing.T) {
	for _, tgt := range allTargets() {
		begin := tgt.BeginEntryPoint(4, 20)
		require.NotEmpty(t, begin)
		end := tgt.EndEntryPoint()
		require.NotEmpty(t, end)
	}
}

func TestWhileLoopBrackets(t *testing.T) {
	for _, tgt := range allTargets() {
		require.NotEmpty(t, tgt.BeginWhile())
		require.NotEmpty(t, tgt.EndWhile())
	}
}

func TestCorePreludeNonEmptyForEachBackend(t *testing.T) {
	for _, tgt := range allTargets() {
		require.NotEmpty(t, tgt.CorePrelude(), "backend %q must supply a runtime prelude", string(tgt.GetName()))
	}
}

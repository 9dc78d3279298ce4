package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReferDerefRoundTrip(t *testing.T) {
	for _, base := range []Type{Void(), Num(), Char(), Bool(), Structure("Pair")} {
		referred := base.Refer()
		require.NotEqual(t, base, referred, "refer() must change the type")
		back, err := referred.Deref()
		require.NoError(t, err)
		require.Equal(t, base, back)
	}
}

func TestDerefNonPointerFails(t *testing.T) {
	_, err := Num().Deref()
	require.Error(t, err)
}

func TestNumCharEquivalence(t *testing.T) {
	require.True(t, Num().Equal(Char()))
	require.True(t, Char().Equal(Num()))
	require.False(t, Num().Equal(Bool()))
}

func TestVoidPointerUniversal(t *testing.T) {
	voidPtr := Void().Pointer()
	numPtr := Num().Pointer()
	structPtr := Structure("Pair").Pointer()

	require.True(t, voidPtr.Equal(numPtr))
	require.True(t, numPtr.Equal(voidPtr), "void-pointer equality must be symmetric")
	require.True(t, structPtr.Equal(voidPtr))

	doublePtr := Num().Pointer().Pointer()
	doubleVoidPtr := Void().Pointer().Pointer()
	require.False(t, doublePtr.Equal(doubleVoidPtr), "universal rule is single-level only")
}

func TestStructureEquality(t *testing.T) {
	require.True(t, Structure("Pair").Equal(Structure("Pair")))
	require.False(t, Structure("Pair").Equal(Structure("Other")))
	require.False(t, Structure("Pair").Equal(Num()))
}

func TestSizeOf(t *testing.T) {
	sizes := map[string]int{"Pair": 2}
	require.Equal(t, 0, Void().SizeOf(sizes))
	require.Equal(t, 1, Num().SizeOf(sizes))
	require.Equal(t, 1, Char().SizeOf(sizes))
	require.Equal(t, 2, Structure("Pair").SizeOf(sizes))
	require.Equal(t, 1, Structure("Pair").Pointer().SizeOf(sizes), "pointers are always one cell")
}

package binary

import (
	"debug/dwarf"
	"testing"

	lru "github.com/hashicorp/golang-lru"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *typeResolver {
	t.Helper()
	c, err := lru.New(64)
	require.NoError(t, err)
	return &typeResolver{cache: c}
}

func TestTypeDescriptorTargetVoidWhenUntyped(t *testing.T) {
	td := &TypeDescriptor{Kind: KindPointer, Size: 8}
	target, err := td.Target()
	require.NoError(t, err)
	assert.Equal(t, KindVoid, target.Kind)
}

func TestTypeDescriptorTargetResolvesCachedOffset(t *testing.T) {
	r := newTestResolver(t)
	pointee := &TypeDescriptor{Kind: KindBase, Name: "int", Size: 4, Encoding: EncodingSigned, resolver: r}
	r.cache.Add(dwarf.Offset(10), pointee)

	ptr := &TypeDescriptor{Kind: KindPointer, Size: 8, targetOffset: dwarf.Offset(10), hasTarget: true, resolver: r}
	target, err := ptr.Target()
	require.NoError(t, err)
	assert.Equal(t, "int", target.Name)
	assert.Equal(t, KindBase, target.Kind)
}

func TestTypeDescriptorUnwrapStripsTypedefConstVolatile(t *testing.T) {
	r := newTestResolver(t)
	base := &TypeDescriptor{Kind: KindBase, Name: "int", Size: 4, resolver: r}
	r.cache.Add(dwarf.Offset(1), base)

	constInt := &TypeDescriptor{Kind: KindConst, targetOffset: dwarf.Offset(1), hasTarget: true, resolver: r}
	r.cache.Add(dwarf.Offset(2), constInt)

	typedefed := &TypeDescriptor{Kind: KindTypedef, Name: "myint", targetOffset: dwarf.Offset(2), hasTarget: true, resolver: r}

	unwrapped, err := typedefed.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, KindBase, unwrapped.Kind)
	assert.Equal(t, "int", unwrapped.Name)
}

func TestTypeDescriptorUnwrapNoOpOnConcreteType(t *testing.T) {
	td := &TypeDescriptor{Kind: KindStruct, Name: "point"}
	unwrapped, err := td.Unwrap()
	require.NoError(t, err)
	assert.Same(t, td, unwrapped)
}

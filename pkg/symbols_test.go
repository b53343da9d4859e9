package maquibc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolTableInsertAndLookup(t *testing.T) {
	st := NewSymbolTable(2)

	idx, err := st.Insert(Symbol{Name: "x", Kind: KindVariable, Address: 2, ScopeOwner: "main"})
	assert.NoError(t, err)
	assert.Equal(t, 0, idx)

	sym, ok := st.Lookup("x", "main")
	assert.True(t, ok)
	assert.Equal(t, "x", sym.Name)

	_, ok = st.Lookup("x", "add")
	assert.False(t, ok, "a variable scoped to main must not resolve under a different owner")
}

func TestSymbolTableFull(t *testing.T) {
	st := NewSymbolTable(1)

	_, err := st.Insert(Symbol{Name: "a", ScopeOwner: "main"})
	assert.NoError(t, err)

	_, err = st.Insert(Symbol{Name: "b", ScopeOwner: "main"})
	assert.Error(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestSymbolTableLookupFunction(t *testing.T) {
	st := NewSymbolTable(4)

	_, err := st.Insert(Symbol{Name: "add", Kind: KindFunction, ScopeOwner: "add", Arity: 2})
	assert.NoError(t, err)
	_, err = st.Insert(Symbol{Name: "add", Kind: KindVariable, ScopeOwner: "main"})
	assert.NoError(t, err)

	fn, ok := st.LookupFunction("add")
	assert.True(t, ok)
	assert.Equal(t, KindFunction, fn.Kind)
	assert.Equal(t, 2, fn.Arity)

	_, ok = st.LookupFunction("nope")
	assert.False(t, ok)
}

func TestSymbolTableAtWriteback(t *testing.T) {
	st := NewSymbolTable(1)

	idx, err := st.Insert(Symbol{Name: "add", Kind: KindFunction, ScopeOwner: "add"})
	assert.NoError(t, err)

	st.At(idx).Arity = 3
	sym, _ := st.LookupFunction("add")
	assert.Equal(t, 3, sym.Arity)
}

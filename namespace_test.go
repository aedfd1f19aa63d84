package bran

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test classes. Embedded types carry exported names so promoted fields
// stay settable through reflection.
type simpleClass struct {
	Test  int
	Test2 string
	Test3 bool
	Test4 float64
}

type BaseFields struct {
	A int
	B string
}

type subClass struct {
	BaseFields
}

type prunedClass struct {
	BaseFields
	C int
}

type taggedClass struct {
	Name  string `bran:"n"`
	Skip  int    `bran:"-"`
	Plain int
}

func TestRegisterClassScansFields(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(simpleClass{}, nil, nil))

	sch, err := ns.Schema(simpleClass{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Test", "Test2", "Test3", "Test4"}, sch.Fields.Keys())

	ft, err := sch.Fields.Get("Test2", false)
	require.NoError(t, err)
	assert.Equal(t, typeString, ft)

	for i, name := range sch.Fields.Keys() {
		a, err := sch.Aliases.Get(name, false)
		require.NoError(t, err)
		assert.Equal(t, IntAlias(i+1), a)
	}

	// The class and all its field types have global type ids.
	_, err = ns.TypeID(typeOf[simpleClass](), false)
	assert.NoError(t, err)
}

func TestRegisterClassAcceptsPointerPrototype(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(&simpleClass{}, nil, nil))

	_, err := ns.Schema(simpleClass{})
	assert.NoError(t, err)
}

func TestAliasNumberingIsPerClass(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(simpleClass{}, nil, nil))
	require.NoError(t, ns.RegisterClass(BaseFields{}, nil, nil))

	// The second class's first field gets alias 1 too: numbering restarts
	// for every registration call.
	sch, err := ns.Schema(BaseFields{})
	require.NoError(t, err)
	a, err := sch.Aliases.Get("A", false)
	require.NoError(t, err)
	assert.Equal(t, IntAlias(1), a)
}

func TestEmbeddedFieldsAreInherited(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(BaseFields{}, nil, nil))
	require.NoError(t, ns.RegisterClass(subClass{}, nil, nil))

	base, err := ns.Schema(BaseFields{})
	require.NoError(t, err)
	sub, err := ns.Schema(subClass{})
	require.NoError(t, err)

	// A subclass with no fields of its own inherits the base tables
	// unchanged.
	assert.Equal(t, base.Fields.Items(), sub.Fields.Items())
	assert.Equal(t, base.Aliases.Items(), sub.Aliases.Items())
}

func TestIgnoreDropsInheritedFields(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(prunedClass{}, nil, nil, "B"))

	sch, err := ns.Schema(prunedClass{})
	require.NoError(t, err)
	// Own fields come before promoted ones; B is gone.
	assert.Equal(t, []string{"C", "A"}, sch.Fields.Keys())
}

func TestExplicitFieldMap(t *testing.T) {
	ns := NewNamespace()
	fields := map[string]any{
		"Y": reflect.TypeOf(float64(0)),
		"X": 0, // initial values contribute their type
	}
	aliases := map[string]any{"X": 5}
	require.NoError(t, ns.RegisterClass(simpleClass{}, fields, aliases))

	sch, err := ns.Schema(simpleClass{})
	require.NoError(t, err)

	// Explicit maps register in sorted name order.
	assert.Equal(t, []string{"X", "Y"}, sch.Fields.Keys())

	ax, _ := sch.Aliases.Get("X", false)
	assert.Equal(t, IntAlias(5), ax)
	// Explicit aliases do not consume the allocator.
	ay, _ := sch.Aliases.Get("Y", false)
	assert.Equal(t, IntAlias(1), ay)
}

func TestStructTagAliases(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(taggedClass{}, nil, nil))

	sch, err := ns.Schema(taggedClass{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Plain"}, sch.Fields.Keys(), "tagged \"-\" fields are excluded")

	name, _ := sch.Aliases.Get("Name", false)
	assert.Equal(t, StringAlias("n"), name)
	plain, _ := sch.Aliases.Get("Plain", false)
	assert.Equal(t, IntAlias(1), plain)
}

func TestReregistrationMerges(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(simpleClass{}, nil, nil))

	// Registering again with an explicit map merges instead of replacing.
	require.NoError(t, ns.RegisterClass(simpleClass{}, map[string]any{"Extra": 0}, nil))

	sch, err := ns.Schema(simpleClass{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Test", "Test2", "Test3", "Test4", "Extra"}, sch.Fields.Keys())
}

func TestRegisterField(t *testing.T) {
	ns := NewNamespace()

	err := ns.RegisterField(simpleClass{}, "Test", 0)
	assert.ErrorIs(t, err, ErrNotRegistered, "the class must be registered first")

	require.NoError(t, ns.RegisterClass(simpleClass{}, nil, nil))
	require.NoError(t, ns.RegisterField(simpleClass{}, "Test5", []byte(nil)))

	sch, _ := ns.Schema(simpleClass{})
	ft, err := sch.Fields.Get("Test5", false)
	require.NoError(t, err)
	assert.Equal(t, typeBytes, ft)
	assert.True(t, sch.Aliases.Contains("Test5"))
}

func TestRegisterAlias(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(simpleClass{}, nil, nil))
	sch, _ := ns.Schema(simpleClass{})

	require.NoError(t, ns.RegisterAlias(simpleClass{}, "Test", 7))
	a, _ := sch.Aliases.Get("Test", false)
	assert.Equal(t, IntAlias(7), a)

	require.NoError(t, ns.RegisterAlias(simpleClass{}, "Test2", []byte{0xBE, 0xEF}))
	a, _ = sch.Aliases.Get("Test2", false)
	assert.Equal(t, BytesAlias([]byte{0xBE, 0xEF}), a)

	// A nil alias autogenerates the next integer.
	require.NoError(t, ns.RegisterAlias(simpleClass{}, "Test3", nil))
	a, _ = sch.Aliases.Get("Test3", false)
	assert.Equal(t, IntAlias(5), a)

	// The field-type entry is untouched.
	ft, err := sch.Fields.Get("Test", false)
	require.NoError(t, err)
	assert.Equal(t, typeInt, ft)

	err = ns.RegisterAlias(BaseFields{}, "A", 1)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestBadAliasRejected(t *testing.T) {
	ns := NewNamespace()
	err := ns.RegisterClass(simpleClass{}, nil, map[string]any{"Test": 1.5})
	assert.ErrorIs(t, err, ErrBadAlias)
}

func TestRefreshRenumbersDeterministically(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.RegisterClass(simpleClass{}, nil, nil))

	// Interleave an autoregistration so later ids shift.
	orphanID, err := ns.TypeID(reflect.TypeOf(int32(0)), true)
	require.NoError(t, err)
	require.NoError(t, ns.RegisterClass(BaseFields{}, nil, nil))

	baseIDBefore, _ := ns.TypeID(typeOf[BaseFields](), false)
	assert.Equal(t, orphanID+1, baseIDBefore)

	classesBefore := ns.Classes()
	simpleSch, _ := ns.Schema(simpleClass{})
	fieldsBefore := simpleSch.Fields.Items()
	aliasesBefore := simpleSch.Aliases.Items()

	require.NoError(t, ns.Refresh())

	// Same classes, same field and alias tables.
	assert.Equal(t, classesBefore, ns.Classes())
	simpleSch, err = ns.Schema(simpleClass{})
	require.NoError(t, err)
	assert.Equal(t, fieldsBefore, simpleSch.Fields.Items())
	assert.Equal(t, aliasesBefore, simpleSch.Aliases.Items())

	// The interleaved type is gone and the later class moved down into
	// its slot; builtin ids are unchanged.
	_, err = ns.TypeID(reflect.TypeOf(int32(0)), false)
	assert.ErrorIs(t, err, ErrNotRegistered)
	baseIDAfter, _ := ns.TypeID(typeOf[BaseFields](), false)
	assert.Equal(t, baseIDBefore-1, baseIDAfter)
	boolID, _ := ns.TypeID(typeBool, false)
	assert.Equal(t, 1, boolID)
}

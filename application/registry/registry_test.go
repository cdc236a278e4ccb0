package registry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_automation/domain/entities"
)

type rejectingValidator struct {
	name string
}

func (v rejectingValidator) Validate(d entities.ComponentDescriptor) error {
	if d.Name == v.name {
		return fmt.Errorf("%w: rejected %q", entities.ErrMalformedDescriptor, d.Name)
	}
	return nil
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	d := NewComponent("save").
		Parent("form").
		Layer(ByClass("widget").Index(0).Resolver(entities.ResolverShadowHost).Scope(entities.ScopePage)).
		Final(ByLabel("Save").Match(entities.MatchContains).Element("input").Timeout(time.Second).Retry(100 * time.Millisecond).Visibility(entities.VisibilityAny)).
		Build()

	assert.Equal(t, "save", d.Name)
	assert.Equal(t, "form", d.Parent)
	require.Len(t, d.Layers, 1)

	layer := d.Layers[0]
	assert.Equal(t, entities.StrategyClass, layer.Strategy)
	assert.Equal(t, []string{"widget"}, layer.Terms)
	assert.Equal(t, int64(0), layer.Index.Int64)
	assert.True(t, layer.Index.Valid)
	assert.Equal(t, entities.ResolverShadowHost, layer.Resolver)
	assert.Equal(t, entities.ScopePage, layer.Scope)

	final := d.Final
	assert.Equal(t, entities.StrategyLabel, final.Strategy)
	assert.Equal(t, entities.MatchContains, final.Match)
	assert.Equal(t, "input", final.ElementXPath)
	assert.Equal(t, entities.NullDurationFrom(time.Second), final.Timeout)
	assert.Equal(t, entities.NullDurationFrom(100*time.Millisecond), final.RetryInterval)
	assert.Equal(t, entities.NullVisibilityFrom(entities.VisibilityAny), final.Visibility)
	assert.False(t, final.Index.Valid)
}

func TestBuilderShortcuts(t *testing.T) {
	t.Parallel()

	attr := ByAttribute("data-test", "ok").layer
	assert.Equal(t, entities.StrategyAttribute, attr.Strategy)
	assert.Equal(t, "data-test", attr.Attribute)
	assert.Equal(t, []string{"ok"}, attr.Terms)

	index := ByIndex(2).layer
	assert.Equal(t, entities.StrategyIndex, index.Strategy)
	assert.Empty(t, index.Terms)
	assert.Equal(t, int64(2), index.Index.Int64)
}

func TestBuildIsolated(t *testing.T) {
	t.Parallel()

	b := NewComponent("list").Layer(ByID("menu"))
	first := b.Build()
	b.Layer(ByClass("item"))
	second := b.Build()

	assert.Len(t, first.Layers, 1)
	assert.Len(t, second.Layers, 2)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	page := NewComponent("page").Final(ByID("main")).Build()
	form := NewComponent("form").Parent("page").Final(ByCSS("form")).Build()
	button := NewComponent("button").Parent("form").Final(ByContent("OK")).Build()

	t.Run("ordered lookup", func(t *testing.T) {
		t.Parallel()

		r, err := New(nil, button, form, page)
		require.NoError(t, err)

		d, err := r.Descriptor("form")
		require.NoError(t, err)
		assert.Equal(t, "page", d.Parent)
		assert.Equal(t, []string{"button", "form", "page"}, r.Names())
		assert.Len(t, r.Components(), 3)
	})

	t.Run("unknown component", func(t *testing.T) {
		t.Parallel()

		r, err := New(nil, page)
		require.NoError(t, err)

		_, err = r.Descriptor("missing")
		assert.True(t, errors.Is(err, entities.ErrUnknownComponent))
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil, page, page)
		assert.True(t, errors.Is(err, entities.ErrMalformedDescriptor))
		assert.Contains(t, err.Error(), "registered twice")
	})

	t.Run("unknown parent", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil, form)
		assert.True(t, errors.Is(err, entities.ErrMalformedDescriptor))
		assert.Contains(t, err.Error(), `parent "page"`)
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()

		a := NewComponent("a").Parent("b").Final(ByID("a")).Build()
		b := NewComponent("b").Parent("a").Final(ByID("b")).Build()
		_, err := New(nil, a, b)
		assert.True(t, errors.Is(err, entities.ErrMalformedDescriptor))
		assert.Contains(t, err.Error(), "cyclic")
	})

	t.Run("validator", func(t *testing.T) {
		t.Parallel()

		_, err := New(rejectingValidator{name: "form"}, page, form)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `rejected "form"`)
	})

	t.Run("rejected batch leaves registry untouched", func(t *testing.T) {
		t.Parallel()

		r, err := New(nil, page)
		require.NoError(t, err)

		err = r.Register(form, NewComponent("orphan").Parent("nowhere").Final(ByID("x")).Build())
		require.Error(t, err)
		assert.Equal(t, []string{"page"}, r.Names())

		require.NoError(t, r.Register(form))
		assert.Equal(t, []string{"page", "form"}, r.Names())
	})
}

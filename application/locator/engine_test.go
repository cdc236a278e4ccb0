package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_automation/application/registry"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
	"ui_automation/infrastructure/browser"
)

var testDefaults = entities.Within(200 * time.Millisecond).WithRetryInterval(20 * time.Millisecond)

func newTestEngine(t *testing.T, markup string, descriptors ...entities.ComponentDescriptor) (*Engine, *browser.DOMSession) {
	t.Helper()
	session := newDOMSession(t, markup)
	reg, err := registry.New(nil, descriptors...)
	require.NoError(t, err)
	return NewEngine(session, reg, WithDefaults(testDefaults)), session
}

func attribute(t *testing.T, session interfaces.Session, el interfaces.Element, name string) string {
	t.Helper()
	require.NotNil(t, el)
	value, err := session.Attribute(context.Background(), el, name)
	require.NoError(t, err)
	return value
}

func ids(t *testing.T, session interfaces.Session, elements []interfaces.Element) []string {
	t.Helper()
	result := make([]string, 0, len(elements))
	for _, el := range elements {
		result = append(result, attribute(t, session, el, "id"))
	}
	return result
}

func TestLocateStrategies(t *testing.T) {
	t.Parallel()

	const markup = `<html><body>
		<input id="q" name="query" placeholder="Search" title="Find" value="go">
		<p class="note important" id="note">Hello   world</p>
		<ul class="menu"><li id="m1">One</li><li id="m2">Two</li><li id="m3">Three</li></ul>
		<form>
			<label for="user">User name</label><input id="user">
			<label>Password <input id="pass" type="password"></label>
			<fieldset><legend>Billing</legend><input id="card" name="card"></fieldset>
		</form>
		<div data-test="submit" id="submit" disabled>Submit</div>
		<span data-pick="1" id="pick1"></span><span data-pick="2" id="pick2"></span>
	</body></html>`

	testCases := []struct {
		name      string
		step      *registry.Step
		condition string
		expected  string
	}{
		{name: "id", step: registry.ByID("q"), expected: "q"},
		{name: "name", step: registry.ByName("query"), expected: "q"},
		{name: "placeholder", step: registry.By(entities.StrategyPlaceholder, "Search"), expected: "q"},
		{name: "title", step: registry.By(entities.StrategyTitle, "Find"), expected: "q"},
		{name: "value", step: registry.By(entities.StrategyValue, "go"), expected: "q"},
		{name: "attribute", step: registry.ByAttribute("data-test", "submit"), expected: "submit"},
		{name: "class token", step: registry.ByClass("important"), expected: "note"},
		{name: "content normalized", step: registry.ByContent("Hello world"), expected: "note"},
		{name: "content starts with", step: registry.ByContent("Hel").Match(entities.MatchStartsWith).Element("p"), expected: "note"},
		{name: "content ends with", step: registry.ByContent("world").Match(entities.MatchEndsWith).Element("p"), expected: "note"},
		{name: "several terms", step: registry.ByID("nope", "m2"), expected: "m2"},
		{name: "xpath", step: registry.ByXPath(`//li[last()]`), expected: "m3"},
		{name: "relative xpath", step: registry.ByXPath(`li[2]`), expected: "m2"},
		{name: "index", step: registry.ByIndex(1).Element("li"), expected: "m2"},
		{name: "first", step: registry.By(entities.StrategyFirst).Element("li"), expected: "m1"},
		{name: "last", step: registry.By(entities.StrategyLast).Element("li"), expected: "m3"},
		{name: "css", step: registry.ByCSS("ul.menu li").Index(2), expected: "m3"},
		{name: "label for", step: registry.ByLabel("User name").Element("input"), expected: "user"},
		{name: "nested label", step: registry.ByLabel("Password").Match(entities.MatchContains).Element("input"), expected: "pass"},
		{name: "fieldset", step: registry.ByFieldSet("Billing").Element("input"), expected: "card"},
		{name: "condition", step: registry.ByContent("Submit"), condition: "[@disabled]", expected: "submit"},
		{
			name: "script",
			step: registry.ByScript(`var found = [];
				var nodes = document.body.children;
				for (var i = 0; i < nodes.length; i++) {
					if (nodes[i].getAttribute('data-pick') === '2') {
						found.push(nodes[i]);
					}
				}
				return found;`),
			expected: "pick2",
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := registry.NewComponent("target").Final(tc.step).Build()
			engine, session := newTestEngine(t, markup, d)

			el, err := engine.For("target").Locate(context.Background(), entities.SearchOptions{}, tc.condition)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, attribute(t, session, el, "id"))
		})
	}
}

func TestLocateNotFound(t *testing.T) {
	t.Parallel()

	d := registry.NewComponent("ghost").Final(registry.ByID("ghost")).Build()
	engine, _ := newTestEngine(t, `<div id="real"></div>`, d)
	locator := engine.For("ghost")

	start := time.Now()
	el, err := locator.Locate(context.Background(), entities.Within(150*time.Millisecond), "")
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Nil(t, el)
	require.True(t, entities.IsNotFound(err))

	var nf *entities.ElementNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ghost", nf.Component)
	assert.Contains(t, nf.Selector, `@id="ghost"`)

	el, err = locator.Locate(context.Background(), entities.Safely(), "")
	require.NoError(t, err)
	assert.Nil(t, el)

	all, err := locator.LocateAll(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLocateUnknownComponent(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t, `<div></div>`)
	_, err := engine.For("nothing").Locate(context.Background(), entities.Safely(), "")
	assert.ErrorIs(t, err, entities.ErrUnknownComponent)
}

func TestLocateWaitsForRendering(t *testing.T) {
	t.Parallel()

	d := registry.NewComponent("late").Final(registry.ByID("late")).Build()
	engine, session := newTestEngine(t, `<div id="loading"></div>`, d)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = session.SetHTML(`<div id="late"></div>`)
	}()

	el, err := engine.For("late").Locate(context.Background(), entities.Within(2*time.Second), "")
	require.NoError(t, err)
	assert.Equal(t, "late", attribute(t, session, el, "id"))
}

func TestLocateVisibility(t *testing.T) {
	t.Parallel()

	d := registry.NewComponent("panel").Final(registry.ByClass("panel")).Build()
	engine, session := newTestEngine(t, `
		<div class="panel" id="hidden" style="display: none"></div>
		<div class="panel" id="shown"></div>`, d)
	locator := engine.For("panel")

	testCases := []struct {
		visibility entities.Visibility
		expected   []string
	}{
		{visibility: entities.VisibilityVisible, expected: []string{"shown"}},
		{visibility: entities.VisibilityHidden, expected: []string{"hidden"}},
		{visibility: entities.VisibilityAny, expected: []string{"hidden", "shown"}},
	}
	for _, tc := range testCases {
		all, err := locator.LocateAll(context.Background(), entities.SearchOptions{}.WithVisibility(tc.visibility), "")
		require.NoError(t, err)
		assert.Equal(t, tc.expected, ids(t, session, all), tc.visibility)
	}
}

func TestLocateAllFansOutOverScriptResults(t *testing.T) {
	t.Parallel()

	d := registry.NewComponent("picks").
		Final(registry.ByScript(`var found = [];
			var nodes = document.body.children;
			for (var i = 0; i < nodes.length; i++) {
				if (nodes[i].getAttribute('data-pick') !== null) {
					found.push(nodes[i]);
				}
			}
			return found;`)).
		Build()
	engine, session := newTestEngine(t, `<span data-pick id="a"></span><b></b><span data-pick id="b"></span>`, d)

	all, err := engine.For("picks").LocateAll(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(t, session, all))
}

func TestLocateDoesNotBacktrack(t *testing.T) {
	t.Parallel()

	const markup = `
		<div class="widget"><label for="cancel">Cancel</label><input id="cancel"></div>
		<div class="widget"><label for="save">Save</label><input id="save"></div>`
	first := registry.NewComponent("first").
		Layer(registry.ByClass("widget").Index(0)).
		Final(registry.ByLabel("Save")).
		Build()
	second := registry.NewComponent("second").
		Layer(registry.ByClass("widget").Index(1)).
		Final(registry.ByLabel("Save")).
		Build()
	engine, session := newTestEngine(t, markup, first, second)

	all, err := engine.For("first").LocateAll(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Empty(t, all)

	el, err := engine.For("first").Locate(context.Background(), entities.Safely(), "")
	require.NoError(t, err)
	assert.Nil(t, el)

	el, err = engine.For("second").Locate(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, "save", attribute(t, session, el, "id"))
}

func TestLocateLayerNotFound(t *testing.T) {
	t.Parallel()

	d := registry.NewComponent("nested").
		Layer(registry.ByID("missing")).
		Final(registry.ByID("x")).
		Build()
	engine, _ := newTestEngine(t, `<div id="x"></div>`, d)

	_, err := engine.For("nested").Locate(context.Background(), entities.Within(50*time.Millisecond), "")
	var nf *entities.ElementNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "layer 1", nf.Layer)
	assert.Equal(t, "nested", nf.Component)
}

func TestLocateInShadowRoot(t *testing.T) {
	t.Parallel()

	const markup = `<html><body>
		<div id="host"><template shadowrootmode="open"><style>p { color: red }</style><section><button id="inner">Go</button></section></template></div>
		<div id="plain"><button id="outer">Out</button></div>
	</body></html>`
	inner := registry.NewComponent("inner").
		Layer(registry.ByID("host").Resolver(entities.ResolverShadowHost)).
		Final(registry.ByID("inner")).
		Build()
	direct := registry.NewComponent("direct").Final(registry.ByID("inner")).Build()
	noShadow := registry.NewComponent("noShadow").
		Layer(registry.ByID("plain").Resolver(entities.ResolverShadowHost)).
		Final(registry.ByID("outer")).
		Build()
	engine, session := newTestEngine(t, markup, inner, direct, noShadow)

	el, err := engine.For("inner").Locate(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, "inner", attribute(t, session, el, "id"))

	el, err = engine.For("direct").Locate(context.Background(), entities.Safely(), "")
	require.NoError(t, err)
	assert.Nil(t, el, "shadow content is not reachable from the document")

	_, err = engine.For("noShadow").Locate(context.Background(), entities.Safely(), "")
	assert.ErrorIs(t, err, entities.ErrNoShadowRoot)
}

func TestLocateInEmptyShadowRoot(t *testing.T) {
	t.Parallel()

	const markup = `<div id="host"><template shadowrootmode="open"><style>p { color: red }</style><script>var ready = true;</script></template></div>`
	d := registry.NewComponent("styledOnly").
		Layer(registry.ByID("host").Resolver(entities.ResolverShadowHost)).
		Final(registry.ByCSS("button")).
		Build()
	engine, _ := newTestEngine(t, markup, d)

	started := time.Now()
	_, err := engine.For("styledOnly").Locate(context.Background(), entities.Within(2*time.Second), "")
	assert.ErrorIs(t, err, entities.ErrEmptyShadowRoot)
	assert.Less(t, time.Since(started), time.Second, "an empty shadow root is not retried")
}

func TestLocateWithinParent(t *testing.T) {
	t.Parallel()

	const markup = `
		<form id="login"><input name="q" id="login-q"></form>
		<form id="search"><input name="q" id="search-q"></form>`
	searchForm := registry.NewComponent("searchForm").Final(registry.ByID("search")).Build()
	query := registry.NewComponent("query").Parent("searchForm").Final(registry.ByName("q")).Build()
	pageQuery := registry.NewComponent("pageQuery").Parent("searchForm").
		Final(registry.ByName("q").Scope(entities.ScopePage)).
		Build()
	missingForm := registry.NewComponent("missingForm").Final(registry.ByID("nope")).Build()
	orphan := registry.NewComponent("orphan").Parent("missingForm").Final(registry.ByName("q")).Build()
	engine, session := newTestEngine(t, markup, searchForm, query, pageQuery, missingForm, orphan)

	el, err := engine.For("query").Locate(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, "search-q", attribute(t, session, el, "id"))

	el, err = engine.For("pageQuery").Locate(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, "login-q", attribute(t, session, el, "id"))

	all, err := engine.For("orphan").LocateAll(context.Background(), entities.Safely(), "")
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = engine.For("orphan").Locate(context.Background(), entities.Within(50*time.Millisecond), "")
	var nf *entities.ElementNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missingForm", nf.Component)
}

func TestParentKeepsDeclaredOptions(t *testing.T) {
	t.Parallel()

	form := registry.NewComponent("form").Final(registry.ByID("login").Timeout(2 * time.Second)).Build()
	field := registry.NewComponent("field").Parent("form").Final(registry.ByID("user").Timeout(2 * time.Second)).Build()
	engine, session := newTestEngine(t, `<div id="loading"></div>`, form, field)

	go func() {
		time.Sleep(400 * time.Millisecond)
		_ = session.SetHTML(`<form id="login"><input id="user"></form>`)
	}()

	el, err := engine.For("field").Locate(context.Background(), entities.SearchOptions{}, "")
	require.NoError(t, err, "the parent waits for its own declared timeout, not the engine default")
	assert.Equal(t, "user", attribute(t, session, el, "id"))
}

func TestResolveScopeSources(t *testing.T) {
	t.Parallel()

	const markup = `<div id="app"><div id="panel"><div id="row"><span id="cell"></span></div></div></div>`
	app := registry.NewComponent("app").Final(registry.ByID("app")).Build()
	panel := registry.NewComponent("panel").Parent("app").Final(registry.ByID("panel")).Build()
	row := registry.NewComponent("row").Parent("panel").Final(registry.ByID("row")).Build()
	cell := registry.NewComponent("cell").Parent("row").Final(registry.ByID("cell")).Build()
	engine, session := newTestEngine(t, markup, app, panel, row, cell)

	testCases := []struct {
		source   entities.ScopeSource
		expected string
	}{
		{source: entities.ScopeParent, expected: "row"},
		{source: entities.ScopeGrandparent, expected: "panel"},
		{source: entities.ScopePageObject, expected: "app"},
	}
	for _, tc := range testCases {
		root, found, err := engine.ResolveScope(context.Background(), "cell", tc.source, entities.SearchOptions{})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, tc.expected, attribute(t, session, root, "id"), tc.source)
	}

	root, found, err := engine.ResolveScope(context.Background(), "cell", entities.ScopePage, entities.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, root)

	root, found, err = engine.ResolveScope(context.Background(), "app", entities.ScopePageObject, entities.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, root)
}

func TestIsAbsent(t *testing.T) {
	t.Parallel()

	d := registry.NewComponent("spinner").Final(registry.ByClass("spinner")).Build()

	t.Run("disappears", func(t *testing.T) {
		t.Parallel()

		engine, session := newTestEngine(t, `<div class="spinner"></div>`, d)
		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = session.SetHTML(`<div class="content"></div>`)
		}()

		absent, err := engine.For("spinner").IsAbsent(context.Background(), entities.Within(2*time.Second))
		require.NoError(t, err)
		assert.True(t, absent)
	})

	t.Run("never present", func(t *testing.T) {
		t.Parallel()

		engine, _ := newTestEngine(t, `<div></div>`, d)
		start := time.Now()
		absent, err := engine.For("spinner").IsAbsent(context.Background(), entities.Within(2*time.Second))
		require.NoError(t, err)
		assert.True(t, absent)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("stays", func(t *testing.T) {
		t.Parallel()

		engine, _ := newTestEngine(t, `<div class="spinner"></div>`, d)
		start := time.Now()
		absent, err := engine.For("spinner").IsAbsent(context.Background(), entities.Within(150*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
		assert.False(t, absent)
		require.True(t, entities.IsNotMissing(err))

		var nm *entities.ElementNotMissingError
		require.True(t, errors.As(err, &nm))
		assert.Equal(t, "spinner", nm.Component)
	})

	t.Run("stays safely", func(t *testing.T) {
		t.Parallel()

		engine, _ := newTestEngine(t, `<div class="spinner"></div>`, d)
		absent, err := engine.For("spinner").IsAbsent(context.Background(), entities.Within(50*time.Millisecond).WithSafely(true))
		require.NoError(t, err)
		assert.False(t, absent)
	})
}

func TestSafelyNeverFails(t *testing.T) {
	t.Parallel()

	descriptors := []entities.ComponentDescriptor{
		registry.NewComponent("byID").Final(registry.ByID("none")).Build(),
		registry.NewComponent("byLabel").Final(registry.ByLabel("none")).Build(),
		registry.NewComponent("byCSS").Final(registry.ByCSS(".none")).Build(),
		registry.NewComponent("layered").Layer(registry.ByClass("none")).Final(registry.ByID("none")).Build(),
		registry.NewComponent("child").Parent("byID").Final(registry.ByID("none")).Build(),
	}
	engine, _ := newTestEngine(t, `<div class="present"></div>`, descriptors...)

	opts := entities.Within(30 * time.Millisecond).WithSafely(true)
	for _, d := range descriptors {
		locator := engine.For(d.Name)

		el, err := locator.Locate(context.Background(), opts, "")
		assert.NoError(t, err, d.Name)
		assert.Nil(t, el, d.Name)

		all, err := locator.LocateAll(context.Background(), opts, "")
		assert.NoError(t, err, d.Name)
		assert.Empty(t, all, d.Name)

		absent, err := locator.IsAbsent(context.Background(), opts)
		assert.NoError(t, err, d.Name)
		assert.True(t, absent, d.Name)
	}
}

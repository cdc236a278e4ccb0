package inspector

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_automation/application/locator"
	"ui_automation/application/registry"
	"ui_automation/domain/entities"
	"ui_automation/infrastructure/browser"
)

const page = `<html><body>
	<form id="login">
		<input id="user" name="user" class="field">
		<input id="pass" name="pass" class="field" disabled>
		<button id="go" style="display:none">Go</button>
	</form>
</body></html>`

func newInspector(t *testing.T) *Inspector {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	session, err := browser.NewDOMSession(page, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	reg, err := registry.New(nil,
		registry.NewComponent("form").Final(registry.ByID("login")).Build(),
		registry.NewComponent("fields").Parent("form").Final(registry.ByClass("field")).Build(),
		registry.NewComponent("go").Parent("form").Final(registry.ByID("go")).Build(),
		registry.NewComponent("banner").Final(registry.ByID("banner")).Build(),
	)
	require.NoError(t, err)

	defaults := entities.Within(100 * time.Millisecond).WithRetryInterval(10 * time.Millisecond)
	engine := locator.NewEngine(session, reg, locator.WithDefaults(defaults), locator.WithLogger(logger))
	return NewInspector(engine, logger)
}

func TestRunQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in := newInspector(t)

	result, err := in.Run(ctx, entities.Query{Kind: entities.QueryLocate, Component: "fields"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "user", result.Elements[0].Attributes["id"])
	assert.Equal(t, "input", result.Elements[0].Type)

	result, err = in.Run(ctx, entities.Query{Kind: entities.QueryLocateAll, Component: "fields"})
	require.NoError(t, err)
	require.Len(t, result.Elements, 2)
	assert.Equal(t, "pass", result.Elements[1].Attributes["id"])

	result, err = in.Run(ctx, entities.Query{Kind: entities.QueryLocate, Component: "fields", Condition: "[@disabled]"})
	require.NoError(t, err)
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "pass", result.Elements[0].Attributes["id"])

	result, err = in.Run(ctx, entities.Query{Kind: entities.QueryIsAbsent, Component: "banner"})
	require.NoError(t, err)
	assert.True(t, result.Absent)

	assert.Len(t, in.History(), 4)
}

func TestRunRecordsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in := newInspector(t)

	result, err := in.Run(ctx, entities.Query{Kind: entities.QueryLocate, Component: "go"})
	require.Error(t, err)
	assert.True(t, entities.IsNotFound(err))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.GreaterOrEqual(t, result.Elapsed, 50*time.Millisecond)

	opts := entities.SearchOptions{}.WithVisibility(entities.VisibilityAny)
	result, err = in.Run(ctx, entities.Query{Kind: entities.QueryLocate, Component: "go", Options: opts})
	require.NoError(t, err)
	assert.Len(t, result.Elements, 1)

	result, err = in.Run(ctx, entities.Query{Kind: entities.QueryIsAbsent, Component: "fields"})
	assert.True(t, entities.IsNotMissing(err))
	assert.False(t, result.Absent)

	_, err = in.Run(ctx, entities.Query{Kind: entities.QueryLocate, Component: "nope", Options: entities.Safely()})
	assert.ErrorIs(t, err, entities.ErrUnknownComponent)

	last, ok := in.Last()
	require.True(t, ok)
	assert.Equal(t, "nope", last.Query.Component)
	assert.Len(t, in.History(), 4)

	in.Reset()
	_, ok = in.Last()
	assert.False(t, ok)
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		line     string
		expected entities.Query
		fails    bool
	}{
		{line: "locate save", expected: entities.Query{Kind: entities.QueryLocate, Component: "save"}},
		{line: "  all   rows  [@class = 'a b'] ", expected: entities.Query{Kind: entities.QueryLocateAll, Component: "rows", Condition: "[@class = 'a b']"}},
		{line: "locate-all rows", expected: entities.Query{Kind: entities.QueryLocateAll, Component: "rows"}},
		{line: "absent spinner", expected: entities.Query{Kind: entities.QueryIsAbsent, Component: "spinner"}},
		{line: "locate", fails: true},
		{line: "click save", fails: true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.line, func(t *testing.T) {
			t.Parallel()

			q, err := ParseQuery(tc.line)
			if tc.fails {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, q)
		})
	}
}

package inspector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ui_automation/application/locator"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// Inspector runs queries against registered components and keeps their
// outcome.
type Inspector struct {
	engine  *locator.Engine
	session interfaces.Session
	logger  logrus.FieldLogger
	history []entities.QueryResult
}

// NewInspector - creates new inspector instance
func NewInspector(engine *locator.Engine, logger logrus.FieldLogger) *Inspector {
	return &Inspector{
		engine:  engine,
		session: engine.Session(),
		logger:  logger,
		history: make([]entities.QueryResult, 0),
	}
}

// Run executes a query. Not-found and still-present outcomes are reported in
// the result and returned as error; the result is recorded either way.
func (i *Inspector) Run(ctx context.Context, q entities.Query) (entities.QueryResult, error) {
	start := time.Now()
	result := entities.QueryResult{Query: q}

	log := i.logger.WithFields(logrus.Fields{
		"kind":      q.Kind,
		"component": q.Component,
	})

	elements, err := i.execute(ctx, q, &result)
	if err == nil {
		result.Elements, err = i.describe(ctx, elements)
	}
	result.Elapsed = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		log.WithError(err).Debug("query failed")
	} else {
		result.Success = true
		log.WithField("elements", len(result.Elements)).Debug("query done")
	}

	i.history = append(i.history, result)
	return result, err
}

func (i *Inspector) execute(ctx context.Context, q entities.Query, result *entities.QueryResult) ([]interfaces.Element, error) {
	l := i.engine.For(q.Component)
	switch q.Kind {
	case entities.QueryLocate:
		el, err := l.Locate(ctx, q.Options, q.Condition)
		if err != nil || el == nil {
			return nil, err
		}
		return []interfaces.Element{el}, nil

	case entities.QueryLocateAll:
		return l.LocateAll(ctx, q.Options, q.Condition)

	case entities.QueryIsAbsent:
		if q.Condition != "" {
			return nil, fmt.Errorf("condition is not supported by %s", q.Kind)
		}
		absent, err := l.IsAbsent(ctx, q.Options)
		result.Absent = absent
		return nil, err

	default:
		return nil, fmt.Errorf("unknown query kind: %s", q.Kind)
	}
}

func (i *Inspector) describe(ctx context.Context, elements []interfaces.Element) ([]entities.PageElement, error) {
	described := make([]entities.PageElement, 0, len(elements))
	for _, el := range elements {
		pe, err := i.session.Describe(ctx, el)
		if err != nil {
			return nil, fmt.Errorf("failed to describe element: %w", err)
		}
		described = append(described, pe)
	}
	return described, nil
}

// History - returns query history
func (i *Inspector) History() []entities.QueryResult {
	return append([]entities.QueryResult(nil), i.history...)
}

// Last returns the latest result, false when nothing ran yet.
func (i *Inspector) Last() (entities.QueryResult, bool) {
	if len(i.history) == 0 {
		return entities.QueryResult{}, false
	}
	return i.history[len(i.history)-1], true
}

// Reset - clears query history
func (i *Inspector) Reset() {
	i.history = make([]entities.QueryResult, 0)
}

// ParseQuery reads a query written as "<kind> <component> [condition]".
// Kinds are locate, all (or locate-all) and absent (or is-absent).
func ParseQuery(line string) (entities.Query, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return entities.Query{}, fmt.Errorf("expected <kind> <component> [condition], got %q", line)
	}

	kind, err := ParseKind(fields[0])
	if err != nil {
		return entities.Query{}, err
	}

	// The condition keeps its inner spacing.
	rest := strings.TrimSpace(line)
	rest = strings.TrimSpace(rest[len(fields[0]):])
	condition := strings.TrimSpace(rest[len(fields[1]):])

	return entities.Query{
		Kind:      kind,
		Component: fields[1],
		Condition: condition,
	}, nil
}

// ParseKind - converts a textual query kind
func ParseKind(s string) (entities.QueryKind, error) {
	switch strings.ToLower(strings.NewReplacer("-", "_").Replace(s)) {
	case "locate", "find":
		return entities.QueryLocate, nil
	case "locate_all", "all", "find_all":
		return entities.QueryLocateAll, nil
	case "is_absent", "absent":
		return entities.QueryIsAbsent, nil
	default:
		return "", fmt.Errorf("unknown query kind: %s", s)
	}
}

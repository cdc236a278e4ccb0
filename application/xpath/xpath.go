// Package xpath composes XPath 1.0 fragments from declarative locate terms.
// All functions are pure.
package xpath

import (
	"fmt"
	"strings"

	"ui_automation/domain/entities"
)

// DefaultOuterXPath is used when neither the descriptor nor a preceding
// context resolver provides an outer XPath.
const DefaultOuterXPath = "descendant::"

// Literal renders s as an XPath string literal. XPath 1.0 has no escape
// sequences, so strings holding both quote kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	args := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			args = append(args, `'"'`)
		}
		if p != "" {
			args = append(args, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(args, ",") + ")"
}

// TermCondition builds the boolean expression comparing target with a single
// term.
func TermCondition(term, target string, match entities.MatchMode) string {
	lit := Literal(term)
	switch match {
	case entities.MatchContains:
		return fmt.Sprintf("contains(%s,%s)", target, lit)
	case entities.MatchStartsWith:
		return fmt.Sprintf("starts-with(%s,%s)", target, lit)
	case entities.MatchEndsWith:
		return fmt.Sprintf("substring(%s,string-length(%s) - string-length(%s) + 1)=%s", target, target, lit, lit)
	default:
		return fmt.Sprintf("%s=%s", target, lit)
	}
}

// TermsCondition builds a disjunction over terms. It returns "" when there are
// no terms.
func TermsCondition(terms []string, target string, match entities.MatchMode) string {
	conditions := make([]string, 0, len(terms))
	for _, t := range terms {
		conditions = append(conditions, TermCondition(t, target, match))
	}
	return strings.Join(conditions, " or ")
}

// ClassCondition matches elements by class. With equals every whitespace
// separated class of a term must be one of the element's class tokens; other
// match modes compare against the raw class attribute.
func ClassCondition(terms []string, match entities.MatchMode) string {
	if match != entities.MatchEquals && match != "" {
		return TermsCondition(terms, "@class", match)
	}
	conditions := make([]string, 0, len(terms))
	for _, t := range terms {
		classes := strings.Fields(t)
		if len(classes) == 0 {
			continue
		}
		tokens := make([]string, 0, len(classes))
		for _, c := range classes {
			tokens = append(tokens, fmt.Sprintf(`contains(concat(" ",normalize-space(@class)," "),%s)`, Literal(" "+c+" ")))
		}
		conditions = append(conditions, strings.Join(tokens, " and "))
	}
	if len(conditions) > 1 {
		for i, c := range conditions {
			if strings.Contains(c, " and ") {
				conditions[i] = "(" + c + ")"
			}
		}
	}
	return strings.Join(conditions, " or ")
}

// Path joins outer, element and an optional predicate condition.
func Path(outer, element, condition string) string {
	if outer == "" {
		outer = DefaultOuterXPath
	}
	if element == "" {
		element = entities.DefaultElementXPath
	}
	p := outer + element
	if condition != "" {
		p += "[" + condition + "]"
	}
	return p
}

// WrapWithIndex selects the index-th (0-based) node of subpath.
func WrapWithIndex(subpath string, index int) string {
	if !IsParenthesized(subpath) {
		subpath = "(" + subpath + ")"
	}
	return fmt.Sprintf("%s[%d]", subpath, index+1)
}

// WrapWithLast selects the last node of subpath.
func WrapWithLast(subpath string) string {
	if !IsParenthesized(subpath) {
		subpath = "(" + subpath + ")"
	}
	return subpath + "[last()]"
}

// IsParenthesized reports whether s is enclosed by a single balanced pair of
// parentheses, ignoring parentheses inside string literals.
func IsParenthesized(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// Union combines paths with the XPath union operator.
func Union(paths ...string) string {
	switch len(paths) {
	case 0:
		return ""
	case 1:
		return paths[0]
	}
	return strings.Join(paths, " | ")
}

// IsAbsolute reports whether p is evaluated independently of an outer path,
// i.e. it starts at the root, the context node or a group.
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, "/") || strings.HasPrefix(p, ".") || strings.HasPrefix(p, "(")
}

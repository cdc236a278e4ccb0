package xpath

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ui_automation/domain/entities"
)

func TestLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`Save`, `"Save"`},
		{``, `""`},
		{`say "hi"`, `'say "hi"'`},
		{`it's`, `"it's"`},
		{`a"b'c`, `concat("a",'"',"b'c")`},
		{`"'`, `concat('"',"'")`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestTermsCondition(t *testing.T) {
	t.Parallel()

	t.Run("equals is a disjunction", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `.="A" or .="B"`, TermsCondition([]string{"A", "B"}, ".", entities.MatchEquals))
	})
	t.Run("contains", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `contains(.,"A")`, TermsCondition([]string{"A"}, ".", entities.MatchContains))
	})
	t.Run("starts with", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `starts-with(@id,"x") or starts-with(@id,"y")`,
			TermsCondition([]string{"x", "y"}, "@id", entities.MatchStartsWith))
	})
	t.Run("ends with", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `substring(.,string-length(.) - string-length("ok") + 1)="ok"`,
			TermsCondition([]string{"ok"}, ".", entities.MatchEndsWith))
	})
	t.Run("empty match mode means equals", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `@name="q"`, TermsCondition([]string{"q"}, "@name", ""))
	})
	t.Run("no terms", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, TermsCondition(nil, ".", entities.MatchEquals))
	})
	t.Run("quotes are escaped per term", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `.='a "b"' or .="c"`, TermsCondition([]string{`a "b"`, "c"}, ".", entities.MatchEquals))
	})
}

func TestClassCondition(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		`contains(concat(" ",normalize-space(@class)," ")," widget ")`,
		ClassCondition([]string{"widget"}, entities.MatchEquals))
	assert.Equal(t,
		`(contains(concat(" ",normalize-space(@class)," ")," a ") and contains(concat(" ",normalize-space(@class)," ")," b ")) or contains(concat(" ",normalize-space(@class)," ")," c ")`,
		ClassCondition([]string{"a b", "c"}, entities.MatchEquals))
	assert.Equal(t, `contains(@class,"btn")`, ClassCondition([]string{"btn"}, entities.MatchContains))
}

func TestWrapWithIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(//li)[2]", WrapWithIndex("//li", 1))
	assert.Equal(t, "(//li)[1]", WrapWithIndex("(//li)", 0))
	assert.Equal(t, "((a) | (b))[3]", WrapWithIndex("(a) | (b)", 2))
	assert.Equal(t, `(descendant::*[.=")"])[1]`, WrapWithIndex(`descendant::*[.=")"]`, 0))
	assert.Equal(t, "(//li)[last()]", WrapWithLast("//li"))
}

func TestIsParenthesized(t *testing.T) {
	t.Parallel()

	assert.True(t, IsParenthesized("(a)"))
	assert.True(t, IsParenthesized("((a) | (b))"))
	assert.True(t, IsParenthesized(`(a[.=")("])`))
	assert.False(t, IsParenthesized("(a) | (b)"))
	assert.False(t, IsParenthesized("a"))
	assert.False(t, IsParenthesized("(a"))
}

func TestPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `descendant::input[@id="q"]`, Path("", "input", `@id="q"`))
	assert.Equal(t, "../*", Path("../", "", ""))
	assert.Equal(t, "ancestor::div", Path("ancestor::", "div", ""))
}

func TestUnion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Union())
	assert.Equal(t, "a", Union("a"))
	assert.Equal(t, "a | b", Union("a", "b"))
	assert.True(t, IsAbsolute("//a"))
	assert.True(t, IsAbsolute(".//a"))
	assert.True(t, IsAbsolute("(//a)[1]"))
	assert.False(t, IsAbsolute("a"))
}

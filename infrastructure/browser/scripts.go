package browser

import (
	"errors"
	"strings"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// describeScript collects what a PageElement reports about arguments[0].
const describeScript = `var el = arguments[0];
var rect = el.getBoundingClientRect();
var style = window.getComputedStyle(el);
var tag = el.tagName.toLowerCase();
var selector = tag;
if (el.id) {
	selector = '#' + el.id;
} else if (typeof el.className === 'string' && el.className.trim()) {
	selector = tag + '.' + el.className.trim().split(/\s+/).slice(0, 2).join('.');
}
var attributes = {};
for (var i = 0; i < el.attributes.length; i++) {
	var attr = el.attributes[i];
	if (attr.name.indexOf('data-') === 0 || attr.name === 'id' || attr.name === 'class' || attr.name === 'name' || attr.name === 'type') {
		attributes[attr.name] = attr.value;
	}
}
var text = (el.value || el.placeholder || el.textContent || '').replace(/\s+/g, ' ').trim();
return {
	type: tag,
	selector: selector,
	text: text.substring(0, 200),
	attributes: attributes,
	isVisible: rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden',
	isClickable: el.disabled !== true,
	position: {
		x: Math.round(rect.left + rect.width / 2),
		y: Math.round(rect.top + rect.height / 2)
	}
};`

// isConnectedScript reports whether arguments[0] is still in the document.
const isConnectedScript = `return arguments[0].isConnected;`

// elementsScript wraps a locator script so that it returns an array of
// elements or null.
func elementsScript(body string) string {
	return "var result = (function() {\n" + body + "\n}).apply(null, arguments);\n" +
		"if (result === null || result === undefined) { return null; }\n" +
		"if (result.nodeType === 1) { return [result]; }\n" +
		"return Array.prototype.slice.call(result);"
}

// pageElement - builds a PageElement from the result of describeScript
func pageElement(id string, m map[string]interface{}) entities.PageElement {
	element := entities.PageElement{
		ID:          id,
		Type:        getString(m, "type"),
		Selector:    getString(m, "selector"),
		Text:        getString(m, "text"),
		Attributes:  make(map[string]string),
		IsVisible:   getBool(m, "isVisible"),
		IsClickable: getBool(m, "isClickable"),
	}

	if pos, ok := m["position"].(map[string]interface{}); ok {
		element.Position.X = getInt(pos, "x")
		element.Position.Y = getInt(pos, "y")
	}

	if attrs, ok := m["attributes"].(map[string]interface{}); ok {
		for k, v := range attrs {
			if str, ok := v.(string); ok {
				element.Attributes[k] = str
			}
		}
	}
	return element
}

// staleError maps driver errors about detached elements to ErrStaleElement.
func staleError(err error, markers ...string) error {
	if err == nil || errors.Is(err, interfaces.ErrStaleElement) {
		return err
	}
	msg := err.Error()
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return interfaces.ErrStaleElement
		}
	}
	return err
}

// getString - extracts string value from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getBool - extracts boolean value from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// getInt - extracts integer value from map
func getInt(m map[string]interface{}, key string) int {
	return toInt(m[key])
}

func toInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return 0
}

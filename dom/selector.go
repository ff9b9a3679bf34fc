package dom

import "strings"

// compoundSelector is one comma-separated part of a selector list: an optional
// tag name plus any number of #id and .class conditions.
type compoundSelector struct {
	tag     string
	id      string
	classes []string
}

// parseSelectorList parses the compound-selector subset supported by
// QuerySelector. Combinators and attribute or pseudo selectors are rejected
// with a SyntaxError.
func parseSelectorList(selectors string) ([]compoundSelector, error) {
	var list []compoundSelector
	for _, part := range strings.Split(selectors, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.ContainsAny(part, " \t\n>+~[]:()") {
			return nil, ErrSyntax("'" + selectors + "' is not a valid selector.")
		}
		var sel compoundSelector
		rest := part
		i := strings.IndexAny(rest, "#.")
		if i < 0 {
			i = len(rest)
		}
		sel.tag = strings.ToLower(rest[:i])
		rest = rest[i:]
		for rest != "" {
			kind := rest[0]
			rest = rest[1:]
			j := strings.IndexAny(rest, "#.")
			if j < 0 {
				j = len(rest)
			}
			name := rest[:j]
			rest = rest[j:]
			if name == "" {
				return nil, ErrSyntax("'" + selectors + "' is not a valid selector.")
			}
			if kind == '#' {
				sel.id = name
			} else {
				sel.classes = append(sel.classes, name)
			}
		}
		list = append(list, sel)
	}
	return list, nil
}

func (s compoundSelector) matches(el *Element) bool {
	if s.tag != "" && s.tag != "*" && s.tag != el.LocalName() {
		return false
	}
	if s.id != "" && s.id != el.Id() {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(el.GetAttribute("class"))
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// QuerySelectorAll returns the elements matching selectors in document order.
// Only compound selectors (tag, #id, .class) and comma lists are supported.
func (d *Document) QuerySelectorAll(selectors string) ([]*Element, error) {
	list, err := parseSelectorList(selectors)
	if err != nil {
		return nil, err
	}
	var result []*Element
	d.walkElements(func(el *Element) bool {
		for _, sel := range list {
			if sel.matches(el) {
				result = append(result, el)
				break
			}
		}
		return true
	})
	return result, nil
}

// QuerySelector returns the first element matching selectors, or nil.
func (d *Document) QuerySelector(selectors string) (*Element, error) {
	all, err := d.QuerySelectorAll(selectors)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

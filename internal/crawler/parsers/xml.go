package parsers

import (
	"errors"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Keys used when an element tree is flattened into maps.
const (
	AttrPrefix = "@"
	TextKey    = "#text"
)

var errNoRootElement = errors.New("no root element")

// repeatedElements always decode as arrays, even when only one is present.
var repeatedElements = map[string]bool{
	"item":  true,
	"entry": true,
}

// DecodeXML parses an RSS or Atom body into nested maps. Element names
// keep their namespace prefix ("ht:approx_traffic"), attributes are stored
// under "@name" and mixed text under "#text".
func DecodeXML(body string) (any, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &DecodeError{Reason: ReasonEmptyBody}
	}

	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		if looksLikeHTMLPage(body) {
			return nil, &DecodeError{Reason: ReasonHTMLBlockPage, Err: err}
		}

		return nil, &DecodeError{Reason: ReasonInvalidXML, Err: err}
	}

	root := firstElement(doc)
	if root == nil {
		return nil, &DecodeError{Reason: ReasonInvalidXML, Err: errNoRootElement}
	}

	if strings.EqualFold(root.Data, "html") {
		return nil, &DecodeError{Reason: ReasonHTMLBlockPage}
	}

	return map[string]any{qualifiedName(root.Prefix, root.Data): elementValue(root)}, nil
}

func looksLikeHTMLPage(body string) bool {
	head := strings.ToLower(body[:min(len(body), 512)])

	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}

	return nil
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}

	return prefix + ":" + local
}

// elementValue returns the element's text when it has no attributes and
// no child elements, otherwise a map of its attributes and children.
func elementValue(n *xmlquery.Node) any {
	fields := make(map[string]any)

	for _, attr := range n.Attr {
		if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			continue
		}

		fields[AttrPrefix+qualifiedName(attr.Name.Space, attr.Name.Local)] = attr.Value
	}

	var text strings.Builder

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			name := qualifiedName(child.Prefix, child.Data)
			addChild(fields, name, elementValue(child))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(child.Data)
		default:
		}
	}

	if len(fields) == 0 {
		return text.String()
	}

	if s := strings.TrimSpace(text.String()); s != "" {
		fields[TextKey] = s
	}

	return fields
}

func addChild(fields map[string]any, name string, value any) {
	existing, ok := fields[name]

	switch {
	case !ok && repeatedElements[localName(name)]:
		fields[name] = []any{value}
	case !ok:
		fields[name] = value
	default:
		if list, isList := existing.([]any); isList {
			fields[name] = append(list, value)
		} else {
			fields[name] = []any{existing, value}
		}
	}
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}

	return name
}

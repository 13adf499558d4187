package parsers

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DecodeEmbeddedJSON finds the application/json script block with the
// given id inside an HTML page and parses its content. An empty id picks
// the first such block.
func DecodeEmbeddedJSON(body, scriptID string) (any, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &DecodeError{Reason: ReasonEmptyBody}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &DecodeError{Reason: ReasonNoEmbeddedJSON, Err: err}
	}

	selector := `script[type="application/json"]`
	if scriptID != "" {
		selector = fmt.Sprintf(`script[type="application/json"][id=%q]`, scriptID)
	}

	block := doc.Find(selector).First()
	if block.Length() == 0 {
		return nil, &DecodeError{Reason: ReasonNoEmbeddedJSON}
	}

	content := strings.TrimSpace(block.Text())
	if content == "" {
		return nil, &DecodeError{Reason: ReasonNoEmbeddedJSON}
	}

	return parseJSON(StripXSSI(content))
}

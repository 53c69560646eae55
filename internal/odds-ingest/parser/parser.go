package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

var (
	ErrParse  = errors.New("malformed feed document")
	ErrSchema = errors.New("feed document missing container")
)

const DefaultContainer = "BettingData"

// campos de metadados do container que não são candidatos
var metadataFields = map[string]struct{}{
	"Time":       {},
	"attributes": {},
}

// Parser converte o XML do feed em Snapshot, sem coerção numérica.
// Atributos do XML ficam em Node.Attr e nunca entram no mapeamento.
type Parser struct {
	Container string
}

func New(container string) *Parser {
	if container == "" {
		container = DefaultContainer
	}
	return &Parser{Container: container}
}

func (p *Parser) Parse(raw []byte) (*Snapshot, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	root, err := rootElement(doc)
	if err != nil {
		return nil, err
	}
	if root.Data != p.Container {
		return nil, fmt.Errorf("%w: expected <%s>, got <%s>", ErrSchema, p.Container, root.Data)
	}

	snap := NewSnapshot()
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		if _, skip := metadataFields[n.Data]; skip {
			continue
		}
		snap.Set(n.Data, strings.TrimSpace(n.InnerText()))
	}
	return snap, nil
}

// rootElement exige exatamente um elemento raiz e nenhum texto fora dele
func rootElement(doc *xmlquery.Node) (*xmlquery.Node, error) {
	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.ElementNode:
			if root != nil {
				return nil, fmt.Errorf("%w: multiple root elements", ErrParse)
			}
			root = n
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil, fmt.Errorf("%w: text outside root element", ErrParse)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return root, nil
}

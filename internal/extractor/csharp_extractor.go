package extractor

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// CSharpExtractor implements LanguageExtractor for C#.
type CSharpExtractor struct{}

func (c *CSharpExtractor) GetLanguage() *sitter.Language {
	return csharp.GetLanguage()
}

func (c *CSharpExtractor) GetQuery() string {
	return `
		(class_declaration) @type
		(struct_declaration) @type
		(interface_declaration) @type
		(enum_declaration) @type
		(record_declaration) @type
		(method_declaration) @method
		(constructor_declaration) @method
	`
}

func (c *CSharpExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	var unit *CodeUnit
	switch captureName {
	case "type":
		unit = c.extractTypeUnit(node, sourceCode, filepath)
	case "method":
		unit = c.extractMethodUnit(node, sourceCode, filepath)
	}

	if unit != nil {
		unit.Namespace = enclosingNamespace(node, sourceCode)
		unit.Container = enclosingType(node, sourceCode)
		unit.Language = "C#"
	}
	return unit
}

// CSharpMethodDetails describes a method or constructor.
type CSharpMethodDetails struct {
	Modifiers  []string      `json:"modifiers,omitempty"`
	Parameters []CSharpParam `json:"parameters"`
	Signature  string        `json:"signature"`
}

// CSharpTypeDetails describes a type declaration.
type CSharpTypeDetails struct {
	Modifiers []string `json:"modifiers,omitempty"`
	BaseList  string   `json:"base_list,omitempty"`
}

type CSharpParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var typeKinds = map[string]string{
	"class_declaration":     "class",
	"struct_declaration":    "struct",
	"interface_declaration": "interface",
	"enum_declaration":      "enum",
	"record_declaration":    "record",
}

func (c *CSharpExtractor) extractTypeUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	details := CSharpTypeDetails{Modifiers: modifiers(node, sourceCode)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "base_list" {
			details.BaseList = strings.TrimSpace(strings.TrimPrefix(child.Content(sourceCode), ":"))
		}
	}

	return &CodeUnit{
		Filepath:    filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		Content:     node.Content(sourceCode),
		UnitType:    typeKinds[node.Type()],
		Name:        nameNode.Content(sourceCode),
		Description: extractDocComment(node, sourceCode),
		Details:     details,
	}
}

func (c *CSharpExtractor) extractMethodUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	content := node.Content(sourceCode)

	unitType := "method"
	if node.Type() == "constructor_declaration" {
		unitType = "constructor"
	}

	details := CSharpMethodDetails{
		Modifiers:  modifiers(node, sourceCode),
		Parameters: []CSharpParam{},
	}
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		details.Parameters = extractParams(paramsNode, sourceCode)
	}

	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		details.Signature = canonicalize(string(sourceCode[node.StartByte():bodyNode.StartByte()]))
	} else {
		details.Signature = canonicalize(strings.TrimSuffix(strings.TrimSpace(content), ";"))
	}
	details.Signature = stripAttributes(details.Signature)

	return &CodeUnit{
		Filepath:    filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		Content:     content,
		UnitType:    unitType,
		Name:        nameNode.Content(sourceCode),
		Description: extractDocComment(node, sourceCode),
		Details:     details,
	}
}

func modifiers(node *sitter.Node, sourceCode []byte) []string {
	var mods []string
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "modifier" {
			mods = append(mods, child.Content(sourceCode))
		}
	}
	return mods
}

func extractParams(paramsNode *sitter.Node, sourceCode []byte) []CSharpParam {
	params := []CSharpParam{}
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		p := paramsNode.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		param := CSharpParam{}
		if n := p.ChildByFieldName("name"); n != nil {
			param.Name = n.Content(sourceCode)
		}
		if t := p.ChildByFieldName("type"); t != nil {
			param.Type = t.Content(sourceCode)
		}
		params = append(params, param)
	}
	return params
}

var attributePrefix = regexp.MustCompile(`^(\[[^\]]*\]\s*)+`)

func stripAttributes(signature string) string {
	return attributePrefix.ReplaceAllString(signature, "")
}

func enclosingNamespace(node *sitter.Node, sourceCode []byte) string {
	var parts []string
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "namespace_declaration", "file_scoped_namespace_declaration":
			if n := p.ChildByFieldName("name"); n != nil {
				parts = append([]string{n.Content(sourceCode)}, parts...)
			}
		}
	}
	if len(parts) == 0 {
		// file-scoped namespaces precede their members as siblings
		if ns := fileScopedNamespace(node, sourceCode); ns != "" {
			return ns
		}
	}
	return strings.Join(parts, ".")
}

func fileScopedNamespace(node *sitter.Node, sourceCode []byte) string {
	root := node
	for root.Parent() != nil {
		root = root.Parent()
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "file_scoped_namespace_declaration" {
			continue
		}
		if child.StartByte() < node.StartByte() {
			if n := child.ChildByFieldName("name"); n != nil {
				return n.Content(sourceCode)
			}
		}
	}
	return ""
}

func enclosingType(node *sitter.Node, sourceCode []byte) string {
	var parts []string
	for p := node.Parent(); p != nil; p = p.Parent() {
		if _, ok := typeKinds[p.Type()]; !ok {
			continue
		}
		if n := p.ChildByFieldName("name"); n != nil {
			parts = append([]string{n.Content(sourceCode)}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

func extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(commentLines)
}

var xmlTag = regexp.MustCompile(`</?[a-zA-Z]+[^>]*>`)

// cleanDocComment turns /// XML doc lines into plain text.
func cleanDocComment(lines []string) string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "///"):
			line = strings.TrimPrefix(line, "///")
		case strings.HasPrefix(line, "//"):
			line = strings.TrimPrefix(line, "//")
		default:
			line = strings.TrimSuffix(strings.TrimPrefix(line, "/*"), "*/")
		}
		line = canonicalize(xmlTag.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, " ")
}

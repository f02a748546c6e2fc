package annotate

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

func positionString(pos *ast.Position) string {
	if pos == nil {
		return "?"
	}
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}

func describeNode(node interface{}) string {
	switch node := node.(type) {
	case *ast.OperationDefinition:
		return fmt.Sprintf("%s %s (%s)", node.Operation, node.Name, positionString(node.Position))
	case *ast.FragmentDefinition:
		return fmt.Sprintf("fragment %s (%s)", node.Name, positionString(node.Position))
	case *ast.FragmentSpread:
		return fmt.Sprintf("...%s (%s)", node.Name, positionString(node.Position))
	case *ast.InlineFragment:
		return fmt.Sprintf("... on %s (%s)", node.TypeCondition, positionString(node.Position))
	case *ast.Field:
		return fmt.Sprintf("field %s (%s)", node.Name, positionString(node.Position))
	case *ast.Argument:
		return fmt.Sprintf("argument %s (%s)", node.Name, positionString(node.Position))
	case *ast.ChildValue:
		return fmt.Sprintf("object field %s (%s)", node.Name, positionString(node.Position))
	case *ast.Directive:
		return fmt.Sprintf("@%s (%s)", node.Name, positionString(node.Position))
	case *ast.VariableDefinition:
		return fmt.Sprintf("variable definition $%s (%s)", node.Variable, positionString(node.Position))
	case *ast.Type:
		return fmt.Sprintf("type %s (%s)", node.String(), positionString(node.Position))
	case *ast.Value:
		return fmt.Sprintf("value %s (%s)", node.String(), positionString(node.Position))
	default:
		return fmt.Sprintf("%T", node)
	}
}

// DumpEntry is a printable form of an Entry.
type DumpEntry struct {
	Node    string `json:"node" yaml:"node"`
	Binding string `json:"binding" yaml:"binding"`
}

// Dump renders every binding in the order it was established, for debugging and golden tests.
func (b *Bindings) Dump() []*DumpEntry {
	result := make([]*DumpEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		result = append(result, &DumpEntry{
			Node:    describeNode(entry.Node),
			Binding: entry.Element.String(),
		})
	}
	return result
}

// Dump renders every reference in document order, for debugging and golden tests.
func (r *References) Dump(doc *ast.QueryDocument) []*DumpEntry {
	var result []*DumpEntry
	visit := func(node interface{}) {
		def, ok := r.Lookup(node)
		if !ok {
			return
		}
		result = append(result, &DumpEntry{
			Node:    describeNode(node),
			Binding: describeNode(def),
		})
	}
	for _, op := range doc.Operations {
		walkReferenceNodes(op.SelectionSet, op.Directives, visit)
	}
	for _, frag := range doc.Fragments {
		walkReferenceNodes(frag.SelectionSet, frag.Directives, visit)
	}
	return result
}

func walkReferenceNodes(set ast.SelectionSet, directives ast.DirectiveList, visit func(node interface{})) {
	var walkValue func(value *ast.Value)
	walkValue = func(value *ast.Value) {
		if value == nil {
			return
		}
		if value.Kind == ast.Variable {
			visit(value)
		}
		for _, child := range value.Children {
			walkValue(child.Value)
		}
	}
	walkDirectives := func(directives ast.DirectiveList) {
		for _, d := range directives {
			for _, arg := range d.Arguments {
				walkValue(arg.Value)
			}
		}
	}

	walkDirectives(directives)
	for _, selection := range set {
		switch selection := selection.(type) {
		case *ast.Field:
			for _, arg := range selection.Arguments {
				walkValue(arg.Value)
			}
			walkReferenceNodes(selection.SelectionSet, selection.Directives, visit)
		case *ast.InlineFragment:
			walkReferenceNodes(selection.SelectionSet, selection.Directives, visit)
		case *ast.FragmentSpread:
			visit(selection)
			walkDirectives(selection.Directives)
		}
	}
}

package annotate

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
)

// ResolveReferences links every variable usage inside an operation to the
// variable definition of that operation, and every fragment spread to the
// fragment definition of the same name.
//
// Variable usages inside a fragment definition resolve against the operation
// that spreads the fragment. Each usage has a single definition, so a fragment
// using variables that is spread by more than one operation is an invariant
// violation. Fragments spread by no operation leave their variables unresolved.
// A spread naming a missing fragment is left unresolved; reporting it belongs to validation.
func ResolveReferences(ctx context.Context, doc *ast.QueryDocument) (*References, error) {
	_, logger := log.Named(ctx, "references")

	r := &referenceResolver{
		doc:    doc,
		refs:   newReferences(),
		logger: logger,
	}

	for _, op := range doc.Operations {
		err := r.resolveOperation(op)
		if err != nil {
			return nil, err
		}
	}
	for _, frag := range doc.Fragments {
		err := r.resolveFragment(frag)
		if err != nil {
			return nil, err
		}
	}

	return r.refs, nil
}

type referenceResolver struct {
	doc    *ast.QueryDocument
	refs   *References
	logger logr.Logger

	// scope is the variable scope of the operation being resolved; nil outside of operations.
	scope     map[string]*ast.VariableDefinition
	operation *ast.OperationDefinition
	// expanded holds the fragments already resolved within the current operation.
	expanded map[string]bool
}

func (r *referenceResolver) enterOperation(op *ast.OperationDefinition) error {
	if r.scope != nil {
		return errs.Invariantf("operation %q entered while another operation scope is open", op.Name)
	}

	scope := make(map[string]*ast.VariableDefinition, len(op.VariableDefinitions))
	for _, varDef := range op.VariableDefinitions {
		scope[varDef.Variable] = varDef
	}
	r.scope = scope
	r.operation = op
	r.expanded = make(map[string]bool)

	return nil
}

func (r *referenceResolver) leaveOperation(op *ast.OperationDefinition) error {
	if r.scope == nil {
		return errs.Invariantf("operation %q left without an open scope", op.Name)
	}
	r.scope = nil
	r.operation = nil
	r.expanded = nil

	return nil
}

func (r *referenceResolver) resolveOperation(op *ast.OperationDefinition) error {
	r.logger.V(log.LevelTraversal).Info("resolve operation", "operation", op.Operation, "name", op.Name)

	err := r.enterOperation(op)
	if err != nil {
		return err
	}

	for _, varDef := range op.VariableDefinitions {
		err = r.resolveValue(varDef.DefaultValue)
		if err != nil {
			return err
		}
		err = r.resolveDirectives(varDef.Directives)
		if err != nil {
			return err
		}
	}
	err = r.resolveDirectives(op.Directives)
	if err != nil {
		return err
	}
	err = r.resolveSelectionSet(op.SelectionSet)
	if err != nil {
		return err
	}

	return r.leaveOperation(op)
}

func (r *referenceResolver) resolveFragment(frag *ast.FragmentDefinition) error {
	r.logger.V(log.LevelTraversal).Info("resolve fragment", "name", frag.Name)

	return r.resolveFragmentBody(frag)
}

func (r *referenceResolver) resolveFragmentBody(frag *ast.FragmentDefinition) error {
	if len(frag.VariableDefinition) != 0 {
		return errs.Invariantf("fragment %q declares its own variables, which are not supported", frag.Name)
	}

	err := r.resolveDirectives(frag.Directives)
	if err != nil {
		return err
	}

	return r.resolveSelectionSet(frag.SelectionSet)
}

func (r *referenceResolver) resolveSelectionSet(set ast.SelectionSet) error {
	for _, selection := range set {
		switch selection := selection.(type) {
		case *ast.Field:
			for _, arg := range selection.Arguments {
				err := r.resolveValue(arg.Value)
				if err != nil {
					return err
				}
			}
			err := r.resolveDirectives(selection.Directives)
			if err != nil {
				return err
			}
			err = r.resolveSelectionSet(selection.SelectionSet)
			if err != nil {
				return err
			}

		case *ast.InlineFragment:
			err := r.resolveDirectives(selection.Directives)
			if err != nil {
				return err
			}
			err = r.resolveSelectionSet(selection.SelectionSet)
			if err != nil {
				return err
			}

		case *ast.FragmentSpread:
			err := r.resolveDirectives(selection.Directives)
			if err != nil {
				return err
			}
			err = r.resolveFragmentSpread(selection)
			if err != nil {
				return err
			}

		default:
			return errs.Invariantf("unexpected selection %T", selection)
		}
	}

	return nil
}

func (r *referenceResolver) resolveDirectives(directives ast.DirectiveList) error {
	for _, d := range directives {
		for _, arg := range d.Arguments {
			err := r.resolveValue(arg.Value)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *referenceResolver) resolveValue(value *ast.Value) error {
	if value == nil {
		return nil
	}

	switch value.Kind {
	case ast.Variable:
		return r.resolveVariable(value)
	case ast.ListValue, ast.ObjectValue:
		for _, child := range value.Children {
			err := r.resolveValue(child.Value)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *referenceResolver) resolveVariable(value *ast.Value) error {
	if r.scope == nil {
		if r.refs.variables[value] == nil {
			r.logger.V(log.LevelNode).Info("variable outside of an operation is left unresolved", "variable", value.Raw)
		}
		return nil
	}

	varDef, ok := r.scope[value.Raw]
	if !ok {
		return errs.Invariantf("variable $%s at %s is not defined by operation %q; was the document validated?", value.Raw, positionString(value.Position), r.operation.Name)
	}
	if prev := r.refs.variables[value]; prev != nil && prev != varDef {
		return errs.Invariantf("variable $%s at %s is reached from more than one operation, last from %q", value.Raw, positionString(value.Position), r.operation.Name)
	}
	r.refs.variables[value] = varDef

	return nil
}

// resolveFragmentSpread binds spread and, inside an operation, resolves the
// body of its fragment with the operation's variables. Each fragment is
// entered once per operation, which also ends spread cycles.
func (r *referenceResolver) resolveFragmentSpread(spread *ast.FragmentSpread) error {
	frag := r.doc.Fragments.ForName(spread.Name)
	if frag == nil {
		r.logger.V(log.LevelNode).Info("fragment spread target not found", "name", spread.Name)
		return nil
	}
	r.refs.spreads[spread] = frag

	if r.scope == nil || r.expanded[frag.Name] {
		return nil
	}
	r.expanded[frag.Name] = true

	return r.resolveFragmentBody(frag)
}

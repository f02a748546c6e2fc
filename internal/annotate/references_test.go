package annotate

import (
	"context"
	"errors"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-logr/logr"
	testlogr "github.com/go-logr/logr/testing"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
	"github.com/vvakame/gqlmod/internal/testutils"
)

func TestResolveReferences_fragmentSpread(t *testing.T) {
	ctx := context.Background()
	ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

	doc := testutils.ParseQuery(t, "query.graphql", heredoc.Doc(`
		query Q {
			hero {
				...Known
				...Unknown
			}
		}

		fragment Known on Character {
			name
		}
	`))

	refs, err := ResolveReferences(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}

	hero := doc.Operations[0].SelectionSet[0].(*ast.Field)
	known := hero.SelectionSet[0].(*ast.FragmentSpread)
	unknown := hero.SelectionSet[1].(*ast.FragmentSpread)

	if frag := refs.FragmentSpread(known); frag != doc.Fragments[0] {
		t.Errorf("unexpected fragment: %v", frag)
	}
	if frag := refs.FragmentSpread(unknown); frag != nil {
		t.Errorf("unknown fragment must not be bound: %v", frag)
	}
	if _, ok := refs.Lookup(unknown); ok {
		t.Error("unknown fragment must not be found by Lookup")
	}
	if v := refs.Len(); v != 1 {
		t.Errorf("unexpected length: %d", v)
	}
}

func TestResolveReferences_variables(t *testing.T) {
	ctx := context.Background()
	ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

	doc := testutils.ParseQuery(t, "query.graphql", heredoc.Doc(`
		query A($ep: Episode, $withName: Boolean!) {
			hero(episode: $ep) {
				name @include(if: $withName)
			}
		}

		query B($ep: Episode) {
			hero(episode: $ep) {
				...F
			}
		}

		fragment F on Character {
			friends(episode: $ep) {
				name
			}
		}
	`))

	refs, err := ResolveReferences(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}

	opA := doc.Operations.ForName("A")
	opB := doc.Operations.ForName("B")

	heroA := opA.SelectionSet[0].(*ast.Field)
	if varDef := refs.Variable(heroA.Arguments[0].Value); varDef != opA.VariableDefinitions.ForName("ep") {
		t.Errorf("unexpected definition for A: %v", varDef)
	}
	include := heroA.SelectionSet[0].(*ast.Field).Directives[0]
	if varDef := refs.Variable(include.Arguments[0].Value); varDef != opA.VariableDefinitions.ForName("withName") {
		t.Errorf("unexpected definition for @include: %v", varDef)
	}

	// same name, different operation, different definition.
	heroB := opB.SelectionSet[0].(*ast.Field)
	if varDef := refs.Variable(heroB.Arguments[0].Value); varDef != opB.VariableDefinitions.ForName("ep") {
		t.Errorf("unexpected definition for B: %v", varDef)
	}

	// F is spread by B only, so its usage of $ep resolves to B's definition.
	friends := doc.Fragments[0].SelectionSet[0].(*ast.Field)
	if varDef := refs.Variable(friends.Arguments[0].Value); varDef != opB.VariableDefinitions.ForName("ep") {
		t.Errorf("unexpected definition for F: %v", varDef)
	}
}

func TestResolveReferences_fragmentVariables(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		bound   bool
		invalid bool
	}{
		{
			name: "nested spreads",
			query: heredoc.Doc(`
				query Q($ep: Episode) {
					hero {
						...Outer
					}
				}

				fragment Outer on Character {
					...Inner
					friends {
						...Inner
					}
				}

				fragment Inner on Character {
					friends(episode: $ep) {
						name
					}
				}
			`),
			bound: true,
		},
		{
			name: "spread cycle",
			query: heredoc.Doc(`
				query Q($ep: Episode) {
					hero {
						...Inner
					}
				}

				fragment Inner on Character {
					friends(episode: $ep) {
						...Inner
					}
				}
			`),
			bound: true,
		},
		{
			name: "not spread",
			query: heredoc.Doc(`
				query Q {
					hero {
						name
					}
				}

				fragment Inner on Character {
					friends(episode: $ep) {
						name
					}
				}
			`),
		},
		{
			name: "spread by two operations",
			query: heredoc.Doc(`
				query A($ep: Episode) {
					hero {
						...Inner
					}
				}

				query B($ep: Episode) {
					hero {
						...Inner
					}
				}

				fragment Inner on Character {
					friends(episode: $ep) {
						name
					}
				}
			`),
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

			doc := testutils.ParseQuery(t, "query.graphql", tt.query)

			refs, err := ResolveReferences(ctx, doc)
			if tt.invalid {
				var invariantErr *errs.InvariantError
				if !errors.As(err, &invariantErr) {
					t.Fatalf("expected InvariantError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			friends := doc.Fragments.ForName("Inner").SelectionSet[0].(*ast.Field)
			varDef := refs.Variable(friends.Arguments[0].Value)
			if tt.bound && varDef != doc.Operations[0].VariableDefinitions.ForName("ep") {
				t.Errorf("unexpected definition: %v", varDef)
			}
			if !tt.bound && varDef != nil {
				t.Errorf("fragment spread by no operation must stay unresolved: %v", varDef)
			}
		})
	}
}

func TestResolveReferences_invariants(t *testing.T) {
	t.Run("undeclared variable", func(t *testing.T) {
		ctx := context.Background()
		ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

		doc := testutils.ParseQuery(t, "query.graphql", `query { hero(episode: $ep) { name } }`)

		_, err := ResolveReferences(ctx, doc)
		var invariantErr *errs.InvariantError
		if !errors.As(err, &invariantErr) {
			t.Fatalf("expected InvariantError, got %v", err)
		}
	})

	t.Run("fragment variables", func(t *testing.T) {
		ctx := context.Background()
		ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

		doc := testutils.ParseQuery(t, "query.graphql", `fragment F on Query { hero { name } }`)
		doc.Fragments[0].VariableDefinition = ast.VariableDefinitionList{
			{Variable: "ep", Type: ast.NamedType("Episode", nil)},
		}

		_, err := ResolveReferences(ctx, doc)
		var invariantErr *errs.InvariantError
		if !errors.As(err, &invariantErr) {
			t.Fatalf("expected InvariantError, got %v", err)
		}
	})
}

func TestReferenceResolver_scopeExclusivity(t *testing.T) {
	doc := testutils.ParseQuery(t, "query.graphql", heredoc.Doc(`
		query A { hero { name } }
		query B { hero { name } }
	`))

	r := &referenceResolver{
		doc:    doc,
		refs:   newReferences(),
		logger: logr.Discard(),
	}

	err := r.enterOperation(doc.Operations[0])
	if err != nil {
		t.Fatal(err)
	}

	var invariantErr *errs.InvariantError

	err = r.enterOperation(doc.Operations[1])
	if !errors.As(err, &invariantErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
	err = r.enterOperation(doc.Operations[0])
	if !errors.As(err, &invariantErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}

	err = r.leaveOperation(doc.Operations[0])
	if err != nil {
		t.Fatal(err)
	}
	err = r.leaveOperation(doc.Operations[0])
	if !errors.As(err, &invariantErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}

	err = r.enterOperation(doc.Operations[1])
	if err != nil {
		t.Fatal(err)
	}
}

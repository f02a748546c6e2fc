package annotate

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	testlogr "github.com/go-logr/logr/testing"
	"github.com/google/go-cmp/cmp"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
	"github.com/vvakame/gqlmod/internal/schematype"
	"github.com/vvakame/gqlmod/internal/testutils"
)

var heroSchemaSource = heredoc.Doc(`
	type Query {
		hero(episode: Episode): Character
	}

	enum Episode {
		NEWHOPE
		EMPIRE
		JEDI
	}

	interface Character {
		name: String!
	}

	type Human implements Character {
		name: String!
	}
`)

type annotationDump struct {
	References []*DumpEntry `yaml:"references"`
	Bindings   []*DumpEntry `yaml:"bindings"`
}

func TestAnnotate(t *testing.T) {
	const testFileDir = "./_testdata/assets"
	const expectFileDir = "./_testdata/expected"

	files, err := os.ReadDir(testFileDir)
	if err != nil {
		t.Fatal(err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if !strings.HasSuffix(file.Name(), ".graphql") {
			continue
		}

		t.Run(file.Name(), func(t *testing.T) {
			ctx := context.Background()
			ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

			b1, err := os.ReadFile(path.Join(testFileDir, file.Name()))
			if err != nil {
				t.Fatal(err)
			}

			schemaFile := testutils.FindSchemaFileName(t, string(b1))
			t.Logf("schema: %s, operation: %s", schemaFile, file.Name())

			b2, err := os.ReadFile(path.Join(testFileDir, schemaFile))
			if err != nil {
				t.Fatal(err)
			}

			schema := testutils.LoadSchema(t, schemaFile, string(b2))
			doc := testutils.LoadQuery(t, schema, file.Name(), string(b1))

			result, err := Annotate(ctx, schema, doc)
			if err != nil {
				t.Fatal(err)
			}

			for _, node := range collectNodes(doc) {
				if _, ok := result.Bindings.Lookup(node); !ok {
					t.Errorf("%s is not bound", describeNode(node))
				}
			}

			testutils.CheckGoldenYAML(t, &annotationDump{
				References: result.References.Dump(doc),
				Bindings:   result.Bindings.Dump(),
			}, path.Join(expectFileDir, file.Name()+".yaml"))
		})
	}
}

func TestAnnotate_hero(t *testing.T) {
	ctx := context.Background()
	ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

	schema := testutils.LoadSchema(t, "hero.graphqls", heroSchemaSource)
	doc := testutils.LoadQuery(t, schema, "hero.graphql", heredoc.Doc(`
		query Q($ep: Episode) {
			hero(episode: $ep) {
				name
			}
		}
	`))

	result, err := Annotate(ctx, schema, doc)
	if err != nil {
		t.Fatal(err)
	}

	op := doc.Operations[0]
	if el := result.Bindings.Operation(op); el == nil || el.Type.NamedType() != schema.Query {
		t.Errorf("unexpected operation binding: %v", el)
	}

	heroDef := schema.Query.Fields.ForName("hero")
	hero := op.SelectionSet[0].(*ast.Field)
	heroEl := result.Bindings.Field(hero)
	if heroEl == nil {
		t.Fatal("hero is not bound")
	}
	if heroEl.Definition != heroDef {
		t.Errorf("unexpected hero definition: %v", heroEl)
	}
	if v := heroEl.Type.String(); v != "Character" {
		t.Errorf("unexpected hero type: %s", v)
	}

	arg := hero.Arguments[0]
	argEl := result.Bindings.Argument(arg)
	if argEl == nil {
		t.Fatal("episode is not bound")
	}
	if argEl.Definition != heroDef.Arguments.ForName("episode") {
		t.Errorf("unexpected episode definition: %v", argEl)
	}
	if varDef := result.References.Variable(arg.Value); varDef != op.VariableDefinitions[0] {
		t.Errorf("unexpected variable reference: %v", varDef)
	}
	if v := result.Bindings.Value(arg.Value).Type.String(); v != "Episode" {
		t.Errorf("unexpected value type: %s", v)
	}

	name := hero.SelectionSet[0].(*ast.Field)
	nameEl := result.Bindings.Field(name)
	if nameEl == nil {
		t.Fatal("name is not bound")
	}
	if nameEl.Parent != schema.Types["Character"] {
		t.Errorf("unexpected parent: %s", nameEl.Parent.Name)
	}
	if nameEl.Definition != schema.Types["Character"].Fields.ForName("name") {
		t.Errorf("unexpected name definition: %v", nameEl)
	}
	if !nameEl.Type.IsNonNull() || nameEl.Type.NamedType() != schema.Types["String"] {
		t.Errorf("unexpected name type: %s", nameEl.Type)
	}
}

func TestAnnotate_wrapping(t *testing.T) {
	ctx := context.Background()
	ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

	schema := testutils.LoadSchema(t, "numbers.graphqls", heredoc.Doc(`
		type Query {
			sum(values: [Int!]): Int
		}
	`))
	doc := testutils.LoadQuery(t, schema, "numbers.graphql", heredoc.Doc(`
		query Sum($values: [Int!]) {
			sum(values: $values)
		}
	`))

	result, err := Annotate(ctx, schema, doc)
	if err != nil {
		t.Fatal(err)
	}

	varDef := doc.Operations[0].VariableDefinitions[0]
	typ := result.Bindings.VariableDefinition(varDef).Type
	if v := typ.String(); v != "[Int!]" {
		t.Fatalf("unexpected type: %s", v)
	}
	if !typ.IsList() || typ.IsNonNull() {
		t.Errorf("outermost wrapper must be a nullable list: %s", typ)
	}
	elem := typ.Unwrap()
	if !elem.IsNonNull() {
		t.Errorf("element must be non null: %s", elem)
	}
	if elem.Unwrap().NamedType() != schema.Types["Int"] {
		t.Errorf("unexpected named type: %s", elem.Unwrap())
	}

	// the outer type reference node spells the whole chain, the inner node only the element.
	if v := result.Bindings.TypeRef(varDef.Type).Type.String(); v != "[Int!]" {
		t.Errorf("unexpected outer type reference: %s", v)
	}
	if v := result.Bindings.TypeRef(varDef.Type.Elem).Type.String(); v != "Int!" {
		t.Errorf("unexpected inner type reference: %s", v)
	}
}

func TestAnnotate_idempotent(t *testing.T) {
	ctx := context.Background()
	ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

	schema := testutils.LoadSchema(t, "hero.graphqls", heroSchemaSource)
	doc := testutils.LoadQuery(t, schema, "hero.graphql", heredoc.Doc(`
		query Q($ep: Episode = EMPIRE) {
			hero(episode: $ep) {
				__typename
				...Names
			}
		}

		fragment Names on Character {
			name
		}
	`))

	result1, err := Annotate(ctx, schema, doc)
	if err != nil {
		t.Fatal(err)
	}
	result2, err := Annotate(ctx, schema, doc)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(result1.Bindings.Dump(), result2.Bindings.Dump()); diff != "" {
		t.Errorf("bindings mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(result1.References.Dump(doc), result2.References.Dump(doc)); diff != "" {
		t.Errorf("references mismatch (-first +second):\n%s", diff)
	}

	for _, entry := range result1.Bindings.Entries() {
		el, ok := result2.Bindings.Lookup(entry.Node)
		if !ok {
			t.Errorf("%s is bound only once", describeNode(entry.Node))
			continue
		}
		if !TypeOf(entry.Element).Equal(TypeOf(el)) {
			t.Errorf("%s is bound to %s and %s", describeNode(entry.Node), entry.Element, el)
		}
	}
}

func TestAnnotate_identicalNodes(t *testing.T) {
	ctx := context.Background()
	ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

	schema := testutils.LoadSchema(t, "hero.graphqls", heroSchemaSource)
	doc := testutils.LoadQuery(t, schema, "hero.graphql", heredoc.Doc(`
		{
			a: hero { name }
			b: hero { name }
		}
	`))

	result, err := Annotate(ctx, schema, doc)
	if err != nil {
		t.Fatal(err)
	}

	nameA := doc.Operations[0].SelectionSet[0].(*ast.Field).SelectionSet[0].(*ast.Field)
	nameB := doc.Operations[0].SelectionSet[1].(*ast.Field).SelectionSet[0].(*ast.Field)
	elA := result.Bindings.Field(nameA)
	elB := result.Bindings.Field(nameB)
	if elA == nil || elB == nil {
		t.Fatal("name fields must be bound independently")
	}
	if elA == elB {
		t.Error("structurally identical nodes share a binding")
	}
}

func TestAnnotateTypes_errors(t *testing.T) {
	schema := testutils.LoadSchema(t, "hero.graphqls", heroSchemaSource)

	tests := []struct {
		name      string
		query     string
		schemaErr bool
		message   string
	}{
		{
			name:      "missing mutation root",
			query:     `mutation { hero { name } }`,
			schemaErr: true,
			message:   "schema does not define a mutation root type",
		},
		{
			name:      "unknown field",
			query:     `{ villain }`,
			schemaErr: true,
			message:   "type Query has no field villain",
		},
		{
			name:      "unknown argument",
			query:     `{ hero(id: 1) { name } }`,
			schemaErr: true,
			message:   "unknown argument id on Query.hero",
		},
		{
			name:      "unknown directive",
			query:     `{ hero @cached { name } }`,
			schemaErr: true,
			message:   "unknown directive @cached",
		},
		{
			name:      "unknown variable type",
			query:     `query ($ep: Season) { hero(episode: $ep) { name } }`,
			schemaErr: true,
			message:   "unknown type Season",
		},
		{
			name:    "int literal for enum",
			query:   `{ hero(episode: 1) { name } }`,
			message: "given for Episode",
		},
		{
			name:    "list literal for enum",
			query:   `{ hero(episode: [JEDI]) { name } }`,
			message: "invariant violation: list literal at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctx = log.WithLogger(ctx, testlogr.NewTestLogger(t))

			doc := testutils.ParseQuery(t, "query.graphql", tt.query)

			_, err := Annotate(ctx, schema, doc)
			if err == nil {
				t.Fatal("unexpected success")
			}

			var schemaErr *SchemaError
			var invariantErr *errs.InvariantError
			if tt.schemaErr {
				if !errors.As(err, &schemaErr) {
					t.Fatalf("expected SchemaError, got %T: %s", err, err)
				}
				if errors.As(err, &invariantErr) {
					t.Errorf("SchemaError must not be an InvariantError")
				}
				if len(schemaErr.Err.Locations) == 0 {
					t.Errorf("SchemaError has no location: %s", err)
				}
				if v := schemaErr.Err.Message; v != tt.message {
					t.Errorf("unexpected message: %s", v)
				}
			} else {
				if !errors.As(err, &invariantErr) {
					t.Fatalf("expected InvariantError, got %T: %s", err, err)
				}
				if errors.As(err, &schemaErr) {
					t.Errorf("InvariantError must not be a SchemaError")
				}
				if v := err.Error(); !strings.Contains(v, tt.message) {
					t.Errorf("unexpected message: %s", v)
				}
			}
		})
	}
}

func TestBindings_bindOnce(t *testing.T) {
	schema := testutils.LoadSchema(t, "hero.graphqls", heroSchemaSource)
	doc := testutils.ParseQuery(t, "query.graphql", `{ hero { name } }`)
	op := doc.Operations[0]

	b := newBindings()
	el := &TypeElement{Type: namedType(t, schema, "Query")}
	if err := bindOnce(b, b.operations, op, el); err != nil {
		t.Fatal(err)
	}

	err := bindOnce(b, b.operations, op, el)
	var invariantErr *errs.InvariantError
	if !errors.As(err, &invariantErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("unexpected length: %d", b.Len())
	}
}

func namedType(t *testing.T, schema *ast.Schema, name string) *schematype.Type {
	t.Helper()

	def := schema.Types[name]
	if def == nil {
		t.Fatalf("type %s is not found", name)
	}
	return schematype.Named(def)
}

func collectNodes(doc *ast.QueryDocument) []interface{} {
	var nodes []interface{}

	var visitType func(typ *ast.Type)
	visitType = func(typ *ast.Type) {
		if typ == nil {
			return
		}
		nodes = append(nodes, typ)
		visitType(typ.Elem)
	}
	var visitValue func(value *ast.Value)
	visitValue = func(value *ast.Value) {
		if value == nil {
			return
		}
		nodes = append(nodes, value)
		for _, child := range value.Children {
			if value.Kind == ast.ObjectValue {
				nodes = append(nodes, child)
			}
			visitValue(child.Value)
		}
	}
	visitDirectives := func(directives ast.DirectiveList) {
		for _, d := range directives {
			nodes = append(nodes, d)
			for _, arg := range d.Arguments {
				nodes = append(nodes, arg)
				visitValue(arg.Value)
			}
		}
	}
	var visitSelectionSet func(set ast.SelectionSet)
	visitSelectionSet = func(set ast.SelectionSet) {
		for _, selection := range set {
			switch selection := selection.(type) {
			case *ast.Field:
				nodes = append(nodes, selection)
				for _, arg := range selection.Arguments {
					nodes = append(nodes, arg)
					visitValue(arg.Value)
				}
				visitDirectives(selection.Directives)
				visitSelectionSet(selection.SelectionSet)
			case *ast.InlineFragment:
				nodes = append(nodes, selection)
				visitDirectives(selection.Directives)
				visitSelectionSet(selection.SelectionSet)
			case *ast.FragmentSpread:
				nodes = append(nodes, selection)
				visitDirectives(selection.Directives)
			}
		}
	}

	for _, op := range doc.Operations {
		nodes = append(nodes, op)
		for _, varDef := range op.VariableDefinitions {
			nodes = append(nodes, varDef)
			visitType(varDef.Type)
			visitValue(varDef.DefaultValue)
			visitDirectives(varDef.Directives)
		}
		visitDirectives(op.Directives)
		visitSelectionSet(op.SelectionSet)
	}
	for _, frag := range doc.Fragments {
		nodes = append(nodes, frag)
		visitDirectives(frag.Directives)
		visitSelectionSet(frag.SelectionSet)
	}

	return nodes
}

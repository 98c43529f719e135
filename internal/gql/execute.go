package gql

import (
	"context"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// Request is the JSON body of a GraphQL-over-HTTP POST.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Execute runs req against schema and returns the HTTP status to answer with.
// Parse and validation failures and any field error yield 400.
func Execute(ctx context.Context, schema graphql.Schema, req Request) (int, *graphql.Result) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(req.Query),
			Name: "GraphQL request",
		}),
	})
	if err != nil {
		return http.StatusBadRequest, &graphql.Result{Errors: gqlerrors.FormatErrors(err)}
	}

	vr := graphql.ValidateDocument(&schema, doc, graphql.SpecifiedRules)
	if !vr.IsValid {
		return http.StatusBadRequest, &graphql.Result{Errors: vr.Errors}
	}

	res := graphql.Execute(graphql.ExecuteParams{
		Schema:        schema,
		AST:           doc,
		OperationName: req.OperationName,
		Args:          req.Variables,
		Context:       ctx,
	})
	if res.HasErrors() {
		return http.StatusBadRequest, res
	}
	return http.StatusOK, res
}

// ErrorResult wraps plain messages in a GraphQL error envelope.
func ErrorResult(messages ...string) *graphql.Result {
	errs := make([]gqlerrors.FormattedError, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, gqlerrors.FormattedError{Message: m})
	}
	return &graphql.Result{Errors: errs}
}

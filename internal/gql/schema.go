// Package gql exposes the SMS service as a GraphQL schema.
package gql

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/LeventeLantos/sms-faas/internal/model"
	"github.com/LeventeLantos/sms-faas/internal/service"
)

// Service is the subset of service.SmsService the resolvers need.
type Service interface {
	Templates(ctx context.Context, search string) ([]model.Template, error)
	TemplateByID(ctx context.Context, id string) (*model.Template, error)
	TemplateByTemplateID(ctx context.Context, templateID string) (*model.Template, error)
	SmsLogs(ctx context.Context, f model.LogFilter) ([]model.SmsLog, error)
	UpsertTemplate(ctx context.Context, in model.TemplateUpsert) (*model.Template, error)
	DeleteTemplate(ctx context.Context, id, templateID string) (bool, error)
	SendSms(ctx context.Context, in service.SendInput) (model.SmsLog, error)
}

var (
	templateType = graphql.NewObject(graphql.ObjectConfig{
		Name: "SmsTemplate",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"templateId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"body":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"variables":  &graphql.Field{Type: nonNullList(graphql.String)},
			"createdAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt":  &graphql.Field{Type: graphql.String},
		},
	})

	variableKVType = graphql.NewObject(graphql.ObjectConfig{
		Name: "VariableKV",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"value": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	logType = graphql.NewObject(graphql.ObjectConfig{
		Name: "SmsLog",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"phone":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"message":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"templateId":       &graphql.Field{Type: graphql.String},
			"variables":        &graphql.Field{Type: nonNullList(variableKVType)},
			"status":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"providerResponse": &graphql.Field{Type: graphql.String},
		},
	})

	variableKVInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "VariableKVInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"key":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"value": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	sendSmsInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SendSmsInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"phone":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"message":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"templateId": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"variables":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(variableKVInput))},
			"senderId":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	upsertTemplateInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpsertTemplateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":         &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"templateId": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"name":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"body":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"variables":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
		},
	})
)

func nonNullList(of graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(of)))
}

// NewSchema builds the executable schema backed by svc.
func NewSchema(svc Service) (graphql.Schema, error) {
	r := &resolver{svc: svc}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"templates": &graphql.Field{
				Type: nonNullList(templateType),
				Args: graphql.FieldConfigArgument{
					"search": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.templates,
			},
			"templateById": &graphql.Field{
				Type: templateType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.templateByID,
			},
			"templateByTemplateId": &graphql.Field{
				Type: templateType,
				Args: graphql.FieldConfigArgument{
					"templateId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.templateByTemplateID,
			},
			"smsLogs": &graphql.Field{
				Type: nonNullList(logType),
				Args: graphql.FieldConfigArgument{
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: model.DefaultLogLimit},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"phone":      &graphql.ArgumentConfig{Type: graphql.String},
					"templateId": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.smsLogs,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"sendSms": &graphql.Field{
				Type: graphql.NewNonNull(logType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(sendSmsInput)},
				},
				Resolve: r.sendSms,
			},
			"upsertTemplate": &graphql.Field{
				Type: graphql.NewNonNull(templateType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(upsertTemplateInput)},
				},
				Resolve: r.upsertTemplate,
			},
			"deleteTemplate": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id":         &graphql.ArgumentConfig{Type: graphql.ID},
					"templateId": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.deleteTemplate,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

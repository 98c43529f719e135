package gql

import (
	"github.com/graphql-go/graphql"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

type resolver struct {
	svc Service
}

func (r *resolver) templates(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.svc.Templates(p.Context, stringArg(p.Args, "search"))
	if err != nil {
		return nil, classify(err)
	}
	return newTemplateViews(list), nil
}

func (r *resolver) templateByID(p graphql.ResolveParams) (interface{}, error) {
	t, err := r.svc.TemplateByID(p.Context, stringArg(p.Args, "id"))
	return optionalTemplate(t, err)
}

func (r *resolver) templateByTemplateID(p graphql.ResolveParams) (interface{}, error) {
	t, err := r.svc.TemplateByTemplateID(p.Context, stringArg(p.Args, "templateId"))
	return optionalTemplate(t, err)
}

func optionalTemplate(t *model.Template, err error) (interface{}, error) {
	if err != nil {
		return nil, classify(err)
	}
	if t == nil {
		return nil, nil
	}
	return newTemplateView(*t), nil
}

func (r *resolver) smsLogs(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.svc.SmsLogs(p.Context, model.LogFilter{
		Phone:      stringArg(p.Args, "phone"),
		TemplateID: stringArg(p.Args, "templateId"),
		Limit:      intArg(p.Args, "limit", model.DefaultLogLimit),
		Offset:     intArg(p.Args, "offset", 0),
	})
	if err != nil {
		return nil, classify(err)
	}
	return newLogViews(list), nil
}

func (r *resolver) upsertTemplate(p graphql.ResolveParams) (interface{}, error) {
	in, err := inputArg(p.Args)
	if err != nil {
		return nil, classify(err)
	}
	upsert, err := decodeUpsert(in)
	if err != nil {
		return nil, classify(err)
	}
	t, err := r.svc.UpsertTemplate(p.Context, upsert)
	if err != nil {
		return nil, classify(err)
	}
	return newTemplateView(*t), nil
}

func (r *resolver) deleteTemplate(p graphql.ResolveParams) (interface{}, error) {
	ok, err := r.svc.DeleteTemplate(p.Context, stringArg(p.Args, "id"), stringArg(p.Args, "templateId"))
	if err != nil {
		return nil, classify(err)
	}
	return ok, nil
}

func (r *resolver) sendSms(p graphql.ResolveParams) (interface{}, error) {
	in, err := inputArg(p.Args)
	if err != nil {
		return nil, classify(err)
	}
	l, err := r.svc.SendSms(p.Context, decodeSend(in))
	if err != nil {
		return nil, classify(err)
	}
	return newLogView(l), nil
}

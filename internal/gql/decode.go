package gql

import (
	"fmt"

	"github.com/LeventeLantos/sms-faas/internal/model"
	"github.com/LeventeLantos/sms-faas/internal/service"
)

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]interface{}, name string, def int) int {
	if n, ok := args[name].(int); ok {
		return n
	}
	return def
}

func inputArg(args map[string]interface{}) (map[string]interface{}, error) {
	in, ok := args["input"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: input is required", model.ErrInvalidInput)
	}
	return in, nil
}

// decodeKeyValues converts a VariableKVInput list. Entries without a string key
// are skipped and missing values become "".
func decodeKeyValues(v interface{}) []model.KeyValue {
	list, _ := v.([]interface{})
	out := make([]model.KeyValue, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		key, ok := m["key"].(string)
		if !ok {
			continue
		}
		val, _ := m["value"].(string)
		out = append(out, model.KeyValue{Key: key, Value: val})
	}
	return out
}

func decodeStrings(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func decodeUpsert(in map[string]interface{}) (model.TemplateUpsert, error) {
	name := stringArg(in, "name")
	key, err := model.NewTemplateKey(stringArg(in, "id"), stringArg(in, "templateId"), name)
	if err != nil {
		return model.TemplateUpsert{}, err
	}
	return model.TemplateUpsert{
		Key:       key,
		Name:      name,
		Body:      stringArg(in, "body"),
		Variables: decodeStrings(in["variables"]),
	}, nil
}

func decodeSend(in map[string]interface{}) service.SendInput {
	return service.SendInput{
		Phone:      stringArg(in, "phone"),
		TemplateID: stringArg(in, "templateId"),
		Message:    stringArg(in, "message"),
		Variables:  decodeKeyValues(in["variables"]),
		SenderID:   stringArg(in, "senderId"),
	}
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

type MongoStore struct {
	conn *MongoConnector
	now  func() time.Time
}

func NewMongoStore(conn *MongoConnector) *MongoStore {
	return &MongoStore{conn: conn, now: time.Now}
}

type templateDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TemplateID string             `bson:"templateId"`
	Name       string             `bson:"name"`
	Body       string             `bson:"body"`
	Variables  []string           `bson:"variables"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt,omitempty"`
}

type logDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Phone            string             `bson:"phone"`
	Message          string             `bson:"message"`
	TemplateID       *string            `bson:"templateId"`
	Variables        bson.D             `bson:"variables"`
	Status           string             `bson:"status"`
	ProviderResponse *string            `bson:"providerResponse"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func (s *MongoStore) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := s.conn.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

func (s *MongoStore) ListTemplates(ctx context.Context, search string) ([]model.Template, error) {
	coll, err := s.collection(ctx, templatesCollection)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, templateSearchFilter(search), options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var docs []templateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.Template, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	return s.findTemplate(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetTemplateByTemplateID(ctx context.Context, templateID string) (*model.Template, error) {
	return s.findTemplate(ctx, bson.M{"templateId": templateID})
}

func (s *MongoStore) findTemplate(ctx context.Context, filter bson.M) (*model.Template, error) {
	coll, err := s.collection(ctx, templatesCollection)
	if err != nil {
		return nil, err
	}

	var d templateDoc
	if err := coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	t := d.toModel()
	return &t, nil
}

func (s *MongoStore) UpsertTemplate(ctx context.Context, in model.TemplateUpsert) (*model.Template, error) {
	coll, err := s.collection(ctx, templatesCollection)
	if err != nil {
		return nil, err
	}

	filter, update, err := templateUpsert(in, s.now().UTC())
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d templateDoc
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d); err != nil {
		return nil, err
	}
	t := d.toModel()
	return &t, nil
}

func (s *MongoStore) DeleteTemplateByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.deleteTemplate(ctx, bson.M{"_id": id})
}

func (s *MongoStore) DeleteTemplateByTemplateID(ctx context.Context, templateID string) (bool, error) {
	return s.deleteTemplate(ctx, bson.M{"templateId": templateID})
}

func (s *MongoStore) deleteTemplate(ctx context.Context, filter bson.M) (bool, error) {
	coll, err := s.collection(ctx, templatesCollection)
	if err != nil {
		return false, err
	}

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) InsertLog(ctx context.Context, l model.SmsLog) (model.SmsLog, error) {
	coll, err := s.collection(ctx, logsCollection)
	if err != nil {
		return model.SmsLog{}, err
	}

	res, err := coll.InsertOne(ctx, logDocFromModel(l))
	if err != nil {
		return model.SmsLog{}, err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return model.SmsLog{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	l.ID = oid
	return l, nil
}

func (s *MongoStore) ListLogs(ctx context.Context, f model.LogFilter) ([]model.SmsLog, error) {
	coll, err := s.collection(ctx, logsCollection)
	if err != nil {
		return nil, err
	}

	f = f.Clamped()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cur, err := coll.Find(ctx, logListFilter(f), opts)
	if err != nil {
		return nil, err
	}

	var docs []logDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.SmsLog, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func templateSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"templateId": re},
		bson.M{"body": re},
	}}
}

func logListFilter(f model.LogFilter) bson.M {
	q := bson.M{}
	if f.Phone != "" {
		q["phone"] = f.Phone
	}
	if f.TemplateID != "" {
		q["templateId"] = f.TemplateID
	}
	return q
}

func templateUpsert(in model.TemplateUpsert, now time.Time) (bson.M, bson.M, error) {
	variables := in.Variables
	if variables == nil {
		variables = []string{}
	}
	set := bson.M{
		"name":      in.Name,
		"body":      in.Body,
		"variables": variables,
		"updatedAt": now,
	}

	var filter bson.M
	switch k := in.Key.(type) {
	case model.ByStorageID:
		filter = bson.M{"_id": k.ID}
	case model.ByTemplateID:
		filter = bson.M{"templateId": k.TemplateID}
		set["templateId"] = k.TemplateID
	default:
		return nil, nil, fmt.Errorf("%w: unsupported template key %T", model.ErrInvalidInput, in.Key)
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}
	return filter, update, nil
}

func (d templateDoc) toModel() model.Template {
	variables := d.Variables
	if variables == nil {
		variables = []string{}
	}
	return model.Template{
		ID:         d.ID,
		TemplateID: d.TemplateID,
		Name:       d.Name,
		Body:       d.Body,
		Variables:  variables,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func logDocFromModel(l model.SmsLog) logDoc {
	d := logDoc{
		ID:        l.ID,
		Phone:     l.Phone,
		Message:   l.Message,
		Variables: bson.D{},
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
	}
	if l.TemplateID != "" {
		d.TemplateID = &l.TemplateID
	}
	if l.ProviderResponse != "" {
		d.ProviderResponse = &l.ProviderResponse
	}
	for _, kv := range model.ToList(l.Variables) {
		d.Variables = append(d.Variables, bson.E{Key: kv.Key, Value: kv.Value})
	}
	return d
}

func (d logDoc) toModel() model.SmsLog {
	l := model.SmsLog{
		ID:        d.ID,
		Phone:     d.Phone,
		Message:   d.Message,
		Status:    model.Status(d.Status),
		CreatedAt: d.CreatedAt,
	}
	if d.TemplateID != nil {
		l.TemplateID = *d.TemplateID
	}
	if d.ProviderResponse != nil {
		l.ProviderResponse = *d.ProviderResponse
	}
	for _, e := range d.Variables {
		l.Variables.Set(e.Key, stringValue(e.Value))
	}
	return l
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

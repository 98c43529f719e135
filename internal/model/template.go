package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Template struct {
	ID         primitive.ObjectID
	TemplateID string
	Name       string
	Body       string
	Variables  []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TemplateKey selects the record an upsert writes to. It is either ByStorageID or
// ByTemplateID.
type TemplateKey interface {
	isTemplateKey()
}

// ByStorageID targets a template by its store-assigned id. The template id of the
// record is left untouched.
type ByStorageID struct {
	ID primitive.ObjectID
}

// ByTemplateID targets a template by its human template id, which is also written
// to the record.
type ByTemplateID struct {
	TemplateID string
}

func (ByStorageID) isTemplateKey()  {}
func (ByTemplateID) isTemplateKey() {}

type TemplateUpsert struct {
	Key       TemplateKey
	Name      string
	Body      string
	Variables []string
}

const maxSlugLen = 40

var (
	// Unicode space separators count as whitespace, as do \v and the BOM.
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify derives a template id from a template name.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// NewTemplateKey resolves the upsert target from the optional storage id and
// template id, falling back to a slug of name.
func NewTemplateKey(id, templateID, name string) (TemplateKey, error) {
	switch {
	case id != "":
		oid, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		return ByStorageID{ID: oid}, nil
	case templateID != "":
		return ByTemplateID{TemplateID: templateID}, nil
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: cannot derive templateId from name %q", ErrInvalidInput, name)
	}
	return ByTemplateID{TemplateID: slug}, nil
}

// ParseID parses a storage id. Malformed ids wrap ErrInvalidInput.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", ErrInvalidInput, id)
	}
	return oid, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record classifies rows of a StackExchange Posts.xml dump.
// Each <row> element is parsed once into a Record holding either a
// trimmed Question or an Answer; the open attribute set never travels
// further down the pipeline.
package record

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/stackpair/pkg/types"
)

// RowElement is the local name of the elements carrying posts.
const RowElement = "row"

// Post type discriminator values used by StackExchange dumps.
const (
	postTypeQuestion = "1"
	postTypeAnswer   = "2"
)

// Attribute names read from a row.
const (
	attrID               = "Id"
	attrPostType         = "PostTypeId"
	attrParentID         = "ParentId"
	attrAcceptedAnswerID = "AcceptedAnswerId"
	attrScore            = "Score"
	attrTitle            = "Title"
	attrBody             = "Body"
)

// ErrMalformed marks a row that cannot be classified. Callers skip the row
// and keep going.
var ErrMalformed = errors.New("malformed record")

// Kind tells which variant a Record carries.
type Kind int

const (
	KindNeither Kind = iota
	KindQuestion
	KindAnswer
)

func (k Kind) String() string {
	switch k {
	case KindQuestion:
		return "question"
	case KindAnswer:
		return "answer"
	default:
		return "neither"
	}
}

// Record is a classified row. Only the field matching Kind is set.
type Record struct {
	Kind     Kind
	Question types.Question
	Answer   types.Answer
}

// Qualifies reports whether the record is an answer that passes the
// inclusion filter: score at least minScore and a parent reference.
func (r Record) Qualifies(minScore int) bool {
	return r.Kind == KindAnswer && r.Answer.Score >= minScore && r.Answer.ParentID != ""
}

// Parse classifies a row from its attributes.
func Parse(attrs []xml.Attr) (Record, error) {
	var (
		id, postType, parentID, accepted string
		title, body, score               string
		hasScore                         bool
	)
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			id = a.Value
		case attrPostType:
			postType = a.Value
		case attrParentID:
			parentID = a.Value
		case attrAcceptedAnswerID:
			accepted = a.Value
		case attrScore:
			score, hasScore = a.Value, true
		case attrTitle:
			title = a.Value
		case attrBody:
			body = a.Value
		}
	}

	switch strings.TrimSpace(postType) {
	case postTypeQuestion:
		if id == "" {
			return Record{}, fmt.Errorf("%w: question without %s", ErrMalformed, attrID)
		}
		return Record{
			Kind: KindQuestion,
			Question: types.Question{
				ID:               id,
				Title:            title,
				Body:             body,
				AcceptedAnswerID: accepted,
			},
		}, nil

	case postTypeAnswer:
		if id == "" {
			return Record{}, fmt.Errorf("%w: answer without %s", ErrMalformed, attrID)
		}
		n := 0
		if hasScore {
			v, err := strconv.Atoi(strings.TrimSpace(score))
			if err != nil {
				return Record{}, fmt.Errorf("%w: answer %s has score %q", ErrMalformed, id, score)
			}
			n = v
		}
		return Record{
			Kind: KindAnswer,
			Answer: types.Answer{
				ID:       id,
				ParentID: parentID,
				Body:     body,
				Score:    n,
			},
		}, nil
	}

	return Record{Kind: KindNeither}, nil
}

// ParseElement is Parse for a start element, rejecting anything that is
// not a row.
func ParseElement(se xml.StartElement) (Record, error) {
	if se.Name.Local != RowElement {
		return Record{Kind: KindNeither}, nil
	}
	return Parse(se.Attr)
}

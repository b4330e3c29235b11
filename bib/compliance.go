package bib

import "slices"

// Requirement lists alternative field names; one of them must be present.
type Requirement []string

// requirements are the fields plain.bst warns about when missing, per entry
// type. Types not listed, misc included, have no requirements.
var requirements = map[string][]Requirement{
	"article":       {{"author"}, {"title"}, {"journal"}, {"year"}},
	"book":          {{"author", "editor"}, {"title"}, {"publisher"}, {"year"}},
	"booklet":       {{"title"}},
	"conference":    {{"author"}, {"title"}, {"booktitle"}, {"year"}},
	"inbook":        {{"author", "editor"}, {"chapter", "pages"}, {"title"}, {"publisher"}, {"year"}},
	"incollection":  {{"author"}, {"title"}, {"booktitle"}, {"publisher"}, {"year"}},
	"inproceedings": {{"author"}, {"title"}, {"booktitle"}, {"year"}},
	"manual":        {{"title"}},
	"mastersthesis": {{"author"}, {"title"}, {"school"}, {"year"}},
	"phdthesis":     {{"author"}, {"title"}, {"school"}, {"year"}},
	"proceedings":   {{"title"}, {"year"}},
	"techreport":    {{"author"}, {"title"}, {"institution"}, {"year"}},
	"unpublished":   {{"author"}, {"title"}, {"note"}},
}

// Requirements returns the required fields of an entry type.
func Requirements(typ string) []Requirement {
	reqs := requirements[foldID(typ)]
	out := make([]Requirement, len(reqs))

	for i, r := range reqs {
		out[i] = slices.Clone(r)
	}

	return out
}

// missing returns the requirements has does not satisfy.
func missing(typ string, has func(string) bool) []Requirement {
	var out []Requirement

	for _, req := range requirements[typ] {
		if !slices.ContainsFunc(req, has) {
			out = append(out, slices.Clone(req))
		}
	}

	return out
}

// MissingFields returns the requirements the entry's own fields do not
// satisfy.
func (e *EntryData) MissingFields() []Requirement {
	return missing(e.typ, func(name string) bool {
		_, ok := e.fields[name]

		return ok
	})
}

// IsStandardCompliant reports whether the entry's own fields satisfy the
// requirements of its type. Inherited fields are not considered.
func (e *EntryData) IsStandardCompliant() bool {
	return len(e.MissingFields()) == 0
}

// MissingFields returns the requirements the entry's fields, inherited ones
// included, do not satisfy.
func (e *Entry) MissingFields() []Requirement {
	return missing(e.typ, e.Has)
}

// IsStandardCompliant reports whether the entry's fields, inherited ones
// included, satisfy the requirements of its type.
func (e *Entry) IsStandardCompliant() bool {
	return len(e.MissingFields()) == 0
}

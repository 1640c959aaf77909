// Package idiom defines the structured record extracted from one dictionary page.
package idiom

// Record is the structured form of one idiom entry. Every field is always
// present; sections missing from the source page leave their zero defaults.
type Record struct {
	Title         string        `json:"title"`
	Pronunciation Pronunciation `json:"pronunciation"`
	Definition    string        `json:"definition"`
	Etymology     Etymology     `json:"etymology"`
	Usage         Usage         `json:"usage"`
	RelatedTerms  RelatedTerms  `json:"related_terms"`
}

// Pronunciation holds the headword's phonetic annotations.
type Pronunciation struct {
	Zhuyin Zhuyin `json:"zhuyin"`
	Pinyin string `json:"pinyin"`
}

// Zhuyin lists the phonetic symbols of each character, in character order.
type Zhuyin struct {
	Characters []string `json:"characters"`
}

// Etymology carries the origin story. Explanation is never populated by the
// extractor but is kept for schema stability.
type Etymology struct {
	Explanation string `json:"explanation"`
	Story       string `json:"story"`
}

// Usage describes how the idiom is used.
type Usage struct {
	Semantic string   `json:"semantic"`
	Category string   `json:"category"`
	Examples []string `json:"examples"`
}

// RelatedTerms groups synonyms and reference words.
type RelatedTerms struct {
	Synonyms       []string        `json:"synonyms"`
	ReferenceWords []ReferenceWord `json:"reference_words"`
}

// ReferenceWord is a related entry listed under the reference words section.
type ReferenceWord struct {
	Term          string                 `json:"term"`
	Pronunciation ReferencePronunciation `json:"pronunciation"`
	Definition    string                 `json:"definition"`
}

// ReferencePronunciation is the flattened pronunciation used by reference words.
type ReferencePronunciation struct {
	Zhuyin []string `json:"zhuyin"`
	Pinyin string   `json:"pinyin"`
}

// NewRecord returns a Record with every sequence initialized so it encodes as
// an empty array rather than null.
func NewRecord() Record {
	return Record{
		Pronunciation: Pronunciation{
			Zhuyin: Zhuyin{Characters: []string{}},
		},
		Usage: Usage{Examples: []string{}},
		RelatedTerms: RelatedTerms{
			Synonyms:       []string{},
			ReferenceWords: []ReferenceWord{},
		},
	}
}

// NewReferenceWord returns a ReferenceWord with its defaults filled.
func NewReferenceWord() ReferenceWord {
	return ReferenceWord{
		Pronunciation: ReferencePronunciation{Zhuyin: []string{}},
	}
}

// Normalize replaces nil sequences with empty ones, including those nested in
// reference words. Decoded records from older files may carry nulls.
func (r *Record) Normalize() {
	if r.Pronunciation.Zhuyin.Characters == nil {
		r.Pronunciation.Zhuyin.Characters = []string{}
	}
	if r.Usage.Examples == nil {
		r.Usage.Examples = []string{}
	}
	if r.RelatedTerms.Synonyms == nil {
		r.RelatedTerms.Synonyms = []string{}
	}
	if r.RelatedTerms.ReferenceWords == nil {
		r.RelatedTerms.ReferenceWords = []ReferenceWord{}
	}
	for i := range r.RelatedTerms.ReferenceWords {
		if r.RelatedTerms.ReferenceWords[i].Pronunciation.Zhuyin == nil {
			r.RelatedTerms.ReferenceWords[i].Pronunciation.Zhuyin = []string{}
		}
	}
}

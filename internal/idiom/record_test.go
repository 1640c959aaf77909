package idiom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRecordEncodesEmptyArrays(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(NewRecord())
	require.NoError(t, err)
	require.JSONEq(t, `{
		"title": "",
		"pronunciation": {"zhuyin": {"characters": []}, "pinyin": ""},
		"definition": "",
		"etymology": {"explanation": "", "story": ""},
		"usage": {"semantic": "", "category": "", "examples": []},
		"related_terms": {"synonyms": [], "reference_words": []}
	}`, string(payload))
	require.NotContains(t, string(payload), "null")
}

func TestNormalizeFillsNilSequences(t *testing.T) {
	t.Parallel()

	rec := Record{
		RelatedTerms: RelatedTerms{
			ReferenceWords: []ReferenceWord{{Term: "tree"}},
		},
	}
	rec.Normalize()

	require.NotNil(t, rec.Pronunciation.Zhuyin.Characters)
	require.NotNil(t, rec.Usage.Examples)
	require.NotNil(t, rec.RelatedTerms.Synonyms)
	require.NotNil(t, rec.RelatedTerms.ReferenceWords[0].Pronunciation.Zhuyin)
}

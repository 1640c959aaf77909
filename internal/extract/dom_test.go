package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestTextAfterLabelSkipsElements(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div><h4>漢語拼音</h4><span>ignored</span> pīn yīn <h4>釋　　義</h4></div>`)

	got, ok := textAfterLabel(doc.Find("h4"), LabelPinyin)
	require.True(t, ok)
	assert.Equal(t, "pīn yīn", got)
}

func TestTextAfterLabelMissing(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div><h4>釋　　義</h4></div>`)

	_, ok := textAfterLabel(doc.Find("h4"), LabelPinyin)
	assert.False(t, ok)
	_, ok = textAfterLabel(doc.Find("h4"), LabelDefinition)
	assert.False(t, ok, "label without a following text node")
}

func TestSiblingsAfterLabelKeepsOrder(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div><nbr>before</nbr><h4>注　　音</h4><nbr>ㄅ</nbr><br><nbr> ㄆ </nbr></div>`)

	got, ok := siblingsAfterLabel(doc.Find("h4"), LabelZhuyin, zhuyinTag)
	require.True(t, ok)
	assert.Equal(t, []string{"ㄅ", "ㄆ"}, got)
}

func TestSectionsSplitAtHeadings(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<h3> 甲 </h3><div><p>a</p><p>b</p></div><h3>乙</h3><p>c</p>`)

	secs := sections(doc)
	require.Len(t, secs, 2)
	assert.Equal(t, "甲", secs[0].heading)
	assert.Equal(t, 3, secs[0].body.Length())
	assert.Equal(t, "乙", secs[1].heading)
	assert.Equal(t, 1, secs[1].body.Length())
}

func TestSectionsStopAfterContentBlock(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<h3>甲</h3><ul><li>a</li></ul><div id="footer"><ul><li>b</li></ul></div>`)

	secs := sections(doc)
	require.Len(t, secs, 1)
	assert.Equal(t, 2, secs[0].body.Length())
	assert.Equal(t, "a", secs[0].body.Filter("li").Text())
}

func TestSplitSynonyms(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"「甲」「乙」「丙」":   {"甲", "乙", "丙"},
		" 「甲」 「乙」 ":  {"甲", "乙"},
		"":            {},
		"」」":          {},
		"無括號":         {"無括號"},
	}
	for raw, want := range tests {
		assert.Equal(t, want, splitSynonyms(raw), raw)
	}
}

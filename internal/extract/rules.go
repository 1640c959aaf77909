package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/idiom"
)

// Level-3 headings that open each section of an entry page.
const (
	HeadingPronunciation  = "音讀與釋義"
	HeadingEtymology      = "典故說明"
	HeadingUsage          = "用法說明"
	HeadingDiscrimination = "辨識"
	HeadingReferences     = "參考詞語"
)

// Level-4 labels that precede individual values inside a section.
const (
	LabelZhuyin     = "注　　音"
	LabelPinyin     = "漢語拼音"
	LabelDefinition = "釋　　義"
	LabelSemantic   = "語義說明"
	LabelCategory   = "使用類別"
	LabelSynonyms   = "近義"
)

const (
	titleSelector        = "h2"
	meaningSelector      = "div#row_mean"
	meaningLabelSelector = "h4.ti"
	labelSelector        = "h4"
	zhuyinTag            = "nbr"
	listItemSelector     = "li"
	termSelector         = "div"

	synonymSeparator = "」"
	synonymOpener    = "「"
)

// sectionRule binds a section heading to the function that fills the record
// from that section.
type sectionRule struct {
	heading string
	extract func(sec section, rec *idiom.Record)
}

// labelRule binds a label to the field that receives the text node following it.
type labelRule[T any] struct {
	label  string
	assign func(target *T, value string)
}

var sectionRules = []sectionRule{
	{heading: HeadingPronunciation, extract: extractPronunciation},
	{heading: HeadingEtymology, extract: extractEtymology},
	{heading: HeadingUsage, extract: extractUsage},
	{heading: HeadingDiscrimination, extract: extractDiscrimination},
	{heading: HeadingReferences, extract: extractReferenceWords},
}

var pronunciationLabels = []labelRule[idiom.Record]{
	{label: LabelPinyin, assign: func(r *idiom.Record, v string) { r.Pronunciation.Pinyin = v }},
	{label: LabelDefinition, assign: func(r *idiom.Record, v string) { r.Definition = v }},
}

var usageLabels = []labelRule[idiom.Record]{
	{label: LabelSemantic, assign: func(r *idiom.Record, v string) { r.Usage.Semantic = v }},
	{label: LabelCategory, assign: func(r *idiom.Record, v string) { r.Usage.Category = v }},
}

var referenceLabels = []labelRule[idiom.ReferenceWord]{
	{label: LabelPinyin, assign: func(w *idiom.ReferenceWord, v string) { w.Pronunciation.Pinyin = v }},
	{label: LabelDefinition, assign: func(w *idiom.ReferenceWord, v string) { w.Definition = v }},
}

func ruleFor(heading string) (sectionRule, bool) {
	for _, rule := range sectionRules {
		if rule.heading == heading {
			return rule, true
		}
	}
	return sectionRule{}, false
}

// applyLabels runs each rule against the labels in scope. A rule whose label
// or following text is missing leaves its field untouched.
func applyLabels[T any](labels *goquery.Selection, rules []labelRule[T], target *T) {
	for _, rule := range rules {
		if value, ok := textAfterLabel(labels, rule.label); ok {
			rule.assign(target, value)
		}
	}
}

func extractPronunciation(sec section, rec *idiom.Record) {
	meaning := sec.body.Filter(meaningSelector).First()
	if meaning.Length() == 0 {
		return
	}
	labels := meaning.Find(meaningLabelSelector)
	if chars, ok := siblingsAfterLabel(labels, LabelZhuyin, zhuyinTag); ok {
		rec.Pronunciation.Zhuyin.Characters = chars
	}
	applyLabels(labels, pronunciationLabels, rec)
}

func extractEtymology(sec section, rec *idiom.Record) {
	first := sec.body.First()
	if first.Length() == 0 {
		return
	}
	rec.Etymology.Story = strings.TrimSpace(first.Text())
}

func extractUsage(sec section, rec *idiom.Record) {
	applyLabels(sec.body.Filter(labelSelector), usageLabels, rec)
	rec.Usage.Examples = trimmedTexts(sec.body.Filter(listItemSelector))
}

func extractDiscrimination(sec section, rec *idiom.Record) {
	raw, ok := textAfterLabel(sec.body.Filter(labelSelector), LabelSynonyms)
	if !ok {
		return
	}
	rec.RelatedTerms.Synonyms = splitSynonyms(raw)
}

func extractReferenceWords(sec section, rec *idiom.Record) {
	words := make([]idiom.ReferenceWord, 0)
	sec.body.Filter(listItemSelector).Each(func(_ int, item *goquery.Selection) {
		words = append(words, referenceWord(item))
	})
	rec.RelatedTerms.ReferenceWords = words
}

func referenceWord(item *goquery.Selection) idiom.ReferenceWord {
	word := idiom.NewReferenceWord()
	if term := item.Find(termSelector).First(); term.Length() > 0 {
		word.Term = strings.TrimSpace(term.Text())
	}
	word.Pronunciation.Zhuyin = trimmedTexts(item.Find(zhuyinTag))
	applyLabels(item.Find(labelSelector), referenceLabels, &word)
	return word
}

// splitSynonyms breaks 「甲」「乙」 style text into its bracketed terms.
func splitSynonyms(raw string) []string {
	parts := strings.Split(raw, synonymSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		part = strings.TrimSpace(strings.TrimPrefix(part, synonymOpener))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

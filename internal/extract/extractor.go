package extract

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"prodsync/internal/model"
	"prodsync/internal/observability"
)

// Selectors for the product page markup. The characteristic section/label
// pairs live in CharField tables instead, so new lookup-backed fields can be
// added without touching extraction code.
const (
	topSection   = `div[data-section="top"]`
	charSection  = `div[data-section="characteristics"]`
	titleHeading = topSection + ` h1`
	priceToken   = `div.br-pr-price.main-price-block div.price-wrapper span`
	mediaImage   = `div.product-block-bottom img`
	codeValue    = topSection + ` div#product_code span.br-pr-code-val`
	reviewsCount = `div#fast-navigation-block-static a.scroll-to-element.reviews-count span`
	charItem     = `div.br-pr-chr-item`
)

// CharField binds one record field to a (section title, label) pair in the
// characteristics block. Assign receives the raw looked-up value and is
// responsible for any field-specific parsing.
type CharField struct {
	Name    string
	Section string
	Label   string
	Assign  func(rec *model.ProductRecord, value string)
}

// DefaultCharFields carries the section and label names of the source page.
func DefaultCharFields() []CharField {
	return []CharField{
		{
			Name:    "color",
			Section: "Фізичні характеристики",
			Label:   "Колір",
			Assign:  func(rec *model.ProductRecord, v string) { rec.Color = v },
		},
		{
			Name:    "ssd",
			Section: "Функції пам'яті",
			Label:   "Вбудована пам'ять",
			Assign:  func(rec *model.ProductRecord, v string) { rec.SSD = v },
		},
		{
			Name:    "manufacturer",
			Section: "Інші",
			Label:   "Виробник",
			Assign:  func(rec *model.ProductRecord, v string) { rec.Manufacturer = v },
		},
		{
			Name:    "screen_diagonal",
			Section: "Дисплей",
			Label:   "Діагональ екрану",
			Assign: func(rec *model.ProductRecord, v string) {
				d, err := strconv.ParseFloat(strings.ReplaceAll(v, `"`, ""), 64)
				if err == nil {
					rec.ScreenDiagonal = d
				}
			},
		},
		{
			Name:    "resolution",
			Section: "Дисплей",
			Label:   "Роздільна здатність екрану",
			Assign: func(rec *model.ProductRecord, v string) {
				rec.Resolution = stripSpaces(v)
			},
		},
	}
}

type Extractor struct {
	charFields []CharField
}

func New() *Extractor {
	return &Extractor{charFields: DefaultCharFields()}
}

func NewWithCharFields(fields []CharField) *Extractor {
	return &Extractor{charFields: fields}
}

// Extract maps a document snapshot to a ProductRecord. Every field resolves
// independently: a missing element or unparseable token leaves that field at
// its default and never affects the others.
func (e *Extractor) Extract(doc *goquery.Document) model.ProductRecord {
	rec := model.NewProductRecord()
	chars := doc.Find(charSection).First()

	if v, ok := extractTitle(doc); ok {
		rec.Title = v
	} else {
		fieldMiss("title")
	}

	for _, f := range e.charFields {
		if v, ok := LookupCharacteristic(chars, f.Section, f.Label); ok {
			f.Assign(&rec, v)
		} else {
			fieldMiss(f.Name)
		}
	}

	if v, ok := extractPrice(doc); ok {
		rec.Price = v
	} else {
		fieldMiss("price")
	}

	if v, ok := extractImages(doc); ok {
		rec.Images = v
	} else {
		fieldMiss("images")
	}

	if v, ok := extractCode(doc); ok {
		rec.Code = v
	} else {
		fieldMiss("code")
	}

	if v, ok := extractNumReviews(doc); ok {
		rec.NumReviews = v
	} else {
		fieldMiss("num_reviews")
	}

	rec.Characteristics = extractCharacteristics(chars)

	return rec
}

// LookupCharacteristic resolves a single labeled value inside root: an h3
// whose text equals section, then within that section's container a span
// whose text equals label, then the second span of the label's parent (the
// first span echoes the label). Absence at any step returns ("", false).
func LookupCharacteristic(root *goquery.Selection, section, label string) (string, bool) {
	var value string
	found := false
	root.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != section {
			return true
		}
		h.Parent().Find("span").EachWithBreak(func(_ int, sp *goquery.Selection) bool {
			if strings.TrimSpace(sp.Text()) != label {
				return true
			}
			tokens := sp.Parent().Find("span")
			if tokens.Length() > 1 {
				value = strings.TrimSpace(tokens.Eq(1).Text())
				found = true
			}
			return false
		})
		return false
	})
	return value, found
}

func extractTitle(doc *goquery.Document) (string, bool) {
	h1 := doc.Find(titleHeading).First()
	if h1.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(h1.Text()), true
}

func extractPrice(doc *goquery.Document) (int, bool) {
	token := doc.Find(priceToken).First()
	if token.Length() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(stripSpaces(token.Text()))
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractImages collects image sources in document order. URLs are not
// validated or deduplicated and no size variant is preferred.
// TODO: select only the large-size variant once the gallery markup settles.
func extractImages(doc *goquery.Document) ([]string, bool) {
	var urls []string
	doc.Find(mediaImage).Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			urls = append(urls, src)
		}
	})
	return urls, len(urls) > 0
}

func extractCode(doc *goquery.Document) (string, bool) {
	code := doc.Find(codeValue).First()
	if code.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(code.Text()), true
}

func extractNumReviews(doc *goquery.Document) (int, bool) {
	span := doc.Find(reviewsCount).First()
	if span.Length() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(span.Text()))
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractCharacteristics walks every characteristic item: its h3 is the group
// name, the pair rows inside its first div hold (label, value) span pairs.
// Groups without a single readable pair still get an empty inner map.
func extractCharacteristics(chars *goquery.Selection) map[string]map[string]string {
	out := make(map[string]map[string]string)
	chars.Find(charItem).Each(func(_ int, item *goquery.Selection) {
		group := strings.TrimSpace(item.Find("h3").First().Text())
		if group == "" {
			return
		}
		if _, ok := out[group]; !ok {
			out[group] = make(map[string]string)
		}
		item.ChildrenFiltered("div").First().Find("div").Each(func(_ int, pair *goquery.Selection) {
			spans := pair.Find("span")
			if spans.Length() < 2 {
				return
			}
			name := strings.TrimSpace(spans.Eq(0).Text())
			if name == "" {
				return
			}
			out[group][name] = Normalize(spans.Eq(1).Text())
		})
	})
	return out
}

func fieldMiss(field string) {
	observability.FieldMissTotal.WithLabelValues(field).Inc()
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Package classify labels article text as hoax or legitimate and assigns a
// coarse topic category. Both are keyword rules over lower-cased text.
package classify

import (
	"strings"
	"unicode"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Classifier assigns a label and a confidence in [0,1] to a piece of text.
type Classifier interface {
	Classify(text string) (types.Label, float64)
}

// hoaxMarkers are terms fact-check outlets put in debunk headlines. Weights
// reflect how strongly a term alone signals a debunked claim.
var hoaxMarkers = map[string]float64{
	"hoaks":          1.0,
	"hoax":           1.0,
	"[hoaks]":        1.0,
	"[salah]":        1.0,
	"cek fakta":      0.6,
	"disinformasi":   0.9,
	"misinformasi":   0.9,
	"palsu":          0.8,
	"keliru":         0.8,
	"menyesatkan":    0.8,
	"fitnah":         0.7,
	"tidak benar":    0.8,
	"manipulasi":     0.7,
	"editan":         0.6,
	"satire":         0.5,
	"konten palsu":   1.0,
	"klaim":          0.3,
	"tidak terbukti": 0.7,
}

// Rules is the default keyword classifier.
type Rules struct {
	markers map[string]float64
	// threshold is the minimum score for a Hoax label.
	threshold float64
}

// New returns the default rule classifier.
func New() *Rules {
	return &Rules{markers: hoaxMarkers, threshold: 0.5}
}

// Classify scores text against the marker list. Empty text yields the
// conservative default: Legitimate with confidence 0.
func (r *Rules) Classify(text string) (types.Label, float64) {
	text = normalize(text)
	if text == "" {
		return types.LabelLegitimate, 0
	}

	var score float64
	for term, weight := range r.markers {
		if containsTerm(text, term) {
			score += weight
		}
	}
	if score >= r.threshold {
		return types.LabelHoax, confidence(score)
	}
	if score == 0 {
		return types.LabelLegitimate, 0
	}
	return types.LabelLegitimate, 1 - confidence(score)
}

// confidence squashes an unbounded score into [0,1].
func confidence(score float64) float64 {
	c := score / (score + 0.5)
	if c > 1 {
		return 1
	}
	return c
}

var categories = []struct {
	name     string
	keywords []string
}{
	{"politics", []string{"pemerintah", "presiden", "pemilu", "menteri", "dpr", "partai", "kebijakan", "undang-undang", "capres", "pilkada", "government", "president", "election", "minister", "parliament", "policy", "vote", "law"}},
	{"health", []string{"virus", "covid", "vaksin", "vaccine", "rumah sakit", "hospital", "dokter", "doctor", "kesehatan", "health", "penyakit", "disease", "obat", "medis", "medical"}},
	{"technology", []string{"teknologi", "technology", "aplikasi", "application", "software", "siber", "cyber", "internet", "digital", "data", "whatsapp", "ai"}},
	{"economy", []string{"ekonomi", "economy", "pasar", "market", "bank", "keuangan", "finance", "uang", "money", "investasi", "investment", "saham", "stock", "inflasi", "inflation", "bansos", "pajak"}},
}

// Category returns the topic with the most keyword hits, or "general" when
// nothing matches. Ties go to the earlier category.
func Category(text string) string {
	text = normalize(text)
	best, bestScore := "general", 0
	for _, c := range categories {
		score := 0
		for _, kw := range c.keywords {
			if containsTerm(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.name, score
		}
	}
	return best
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// containsTerm reports whether term occurs in text on word boundaries, so
// "ai" does not match inside "sampai".
func containsTerm(text, term string) bool {
	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

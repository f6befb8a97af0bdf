package tools

import (
	"context"
	"strings"
	"unicode"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
)

// NoDocumentMessage is returned when no FAQ entry matches the query.
const NoDocumentMessage = "Tidak ada dokumen yang cocok dengan pertanyaan tersebut."

type FAQEntry struct {
	Question string   `json:"question" yaml:"question"`
	Answer   string   `json:"answer" yaml:"answer"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
}

// StaticFAQRetriever answers from an in-memory FAQ list: direct keyword hits
// win, otherwise the entry with the largest term overlap is returned.
type StaticFAQRetriever struct {
	entries []FAQEntry
}

func NewStaticFAQRetriever(entries []FAQEntry) *StaticFAQRetriever {
	if len(entries) == 0 {
		entries = MockFAQ
	}
	return &StaticFAQRetriever{entries: entries}
}

func (r *StaticFAQRetriever) RetrieveDocument(_ context.Context, query string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return NoDocumentMessage, nil
	}

	// direct answer mode
	for _, e := range r.entries {
		for _, kw := range e.Keywords {
			if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
				return e.Answer, nil
			}
		}
	}

	// similarity mode
	qt := terms(q)
	best, bestScore := -1, 0
	for i, e := range r.entries {
		score := 0
		for t := range terms(e.Question + " " + e.Answer) {
			if _, ok := qt[t]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return NoDocumentMessage, nil
	}
	return r.entries[best].Answer, nil
}

func terms(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len([]rune(f)) > 3 {
			out[f] = struct{}{}
		}
	}
	return out
}

var MockFAQ = []FAQEntry{
	{
		Question: "Apa visi perusahaan?",
		Answer:   "Visi kami adalah menjadi penyedia produk kebutuhan sehari-hari yang paling dipercaya di Indonesia.",
		Keywords: []string{"visi"},
	},
	{
		Question: "Apa misi perusahaan?",
		Answer:   "Misi kami adalah menghadirkan produk berkualitas dengan harga terjangkau dan layanan pelanggan yang cepat.",
		Keywords: []string{"misi"},
	},
	{
		Question: "Bagaimana cara retur barang?",
		Answer:   "Retur dapat diajukan maksimal 7 hari setelah barang diterima melalui menu Pesanan Saya dengan melampirkan foto produk.",
		Keywords: []string{"retur", "return", "pengembalian"},
	},
	{
		Question: "Jam operasional layanan pelanggan?",
		Answer:   "Layanan pelanggan tersedia setiap hari pukul 08.00-21.00 WIB.",
		Keywords: []string{"jam operasional", "jam buka"},
	},
	{
		Question: "Metode pembayaran apa saja yang tersedia?",
		Answer:   "Kami menerima transfer bank, kartu kredit, dan dompet digital.",
		Keywords: []string{"pembayaran", "bayar"},
	},
}

var _ model.DocumentRetriever = (*StaticFAQRetriever)(nil)

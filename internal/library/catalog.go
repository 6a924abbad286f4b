// Package library maps corpus filenames to author categories and canonical
// Bahá'í Reference Library URLs. The mappings are externally meaningful — the
// URL table encodes real library locations and the author sets drive the
// search front-end's author filter — so they live in a Catalog value that is
// injected into the classifier rather than read from package-level state.
// Tests and future corpus revisions supply their own Catalog.
package library

import (
	"path/filepath"
	"strings"
)

// Author category labels. These are the exact values stored in vector payload
// metadata and offered by the front-end author filter.
const (
	AuthorBahaullah   = "Bahá'u'lláh"
	AuthorAbdulBaha   = "'Abdu'l-Bahá"
	AuthorTheBab      = "The Báb"
	AuthorShoghi      = "Shoghi Effendi"
	AuthorHouse       = "Universal House of Justice"
	AuthorCompilation = "Compilations"

	// AuthorOther is the fallback for filenames outside every category.
	// Classification never fails; unknown documents land here.
	AuthorOther = "Other"
)

// Root is the generic fallback URL returned when a document has no
// specific entry in the URL table.
const Root = "https://www.bahai.org/library/"

// textsBase is the common prefix of every authoritative-text URL.
const textsBase = "https://www.bahai.org/library/authoritative-texts"

// Catalog holds the corpus classification data: which filename stems belong
// to which author category, and where each work lives in the online library.
// Keys are normalized stems (lowercase, extension stripped).
type Catalog struct {
	// Authors maps an author category label to the set of filename stems
	// attributed to it.
	Authors map[string]map[string]bool

	// URLs maps a filename stem to the canonical library URL for that work.
	URLs map[string]string
}

// DefaultCatalog returns the production catalog for the indexed corpus.
// Every entry is load-bearing: stems match the corpus filenames and URLs
// point at the published works, so none may be altered casually.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Authors: map[string]map[string]bool{
			AuthorBahaullah: {
				"kitab-i-iqan":                 true,
				"hidden-words":                 true,
				"gleanings-writings-bahaullah": true,
				"kitab-i-aqdas-2":              true,
				"epistle-son-wolf":             true,
				"gems-divine-mysteries":        true,
				"summons-lord-hosts":           true,
				"tablets-bahaullah":            true,
				"tabernacle-unity":             true,
				"prayers-meditations":          true,
			},
			AuthorAbdulBaha: {
				"some-answered-questions":        true,
				"paris-talks":                    true,
				"promulgation-universal-peace":   true,
				"memorials-faithful":             true,
				"selections-writings-abdul-baha": true,
				"secret-divine-civilization":     true,
				"travelers-narrative":            true,
				"will-testament-abdul-baha":      true,
				"tablets-divine-plan":            true,
				"tablet-auguste-forel":           true,
			},
			AuthorTheBab: {
				"selections-writings-bab": true,
			},
			AuthorShoghi: {
				"advent-divine-justice": true,
				"god-passes-by":         true,
				"promised-day-come":     true,
				"world-order-bahaullah": true,
			},
			AuthorCompilation: {
				"days-remembrance":   true,
				"light-of-the-world": true,
				"turning-point":      true,
			},
		},
		URLs: map[string]string{
			// Bahá'u'lláh
			"kitab-i-iqan":                 textsBase + "/bahaullah/kitab-i-iqan/",
			"hidden-words":                 textsBase + "/bahaullah/hidden-words/",
			"gleanings-writings-bahaullah": textsBase + "/bahaullah/gleanings-writings-bahaullah/",
			"kitab-i-aqdas-2":              textsBase + "/bahaullah/kitab-i-aqdas/",
			"epistle-son-wolf":             textsBase + "/bahaullah/epistle-son-wolf/",
			"gems-divine-mysteries":        textsBase + "/bahaullah/gems-divine-mysteries/",
			"summons-lord-hosts":           textsBase + "/bahaullah/summons-lord-hosts/",
			"tablets-bahaullah":            textsBase + "/bahaullah/tablets-bahaullah/",
			"tabernacle-unity":             textsBase + "/bahaullah/tabernacle-unity/",

			// 'Abdu'l-Bahá
			"some-answered-questions":        textsBase + "/abdul-baha/some-answered-questions/",
			"paris-talks":                    textsBase + "/abdul-baha/paris-talks/",
			"promulgation-universal-peace":   textsBase + "/abdul-baha/promulgation-universal-peace/",
			"memorials-faithful":             textsBase + "/abdul-baha/memorials-faithful/",
			"selections-writings-abdul-baha": textsBase + "/abdul-baha/selections-writings-abdul-baha/",
			"secret-divine-civilization":     textsBase + "/abdul-baha/secret-divine-civilization/",
			"travelers-narrative":            textsBase + "/abdul-baha/travelers-narrative/",
			"will-testament-abdul-baha":      textsBase + "/abdul-baha/will-testament-abdul-baha/",
			"tablets-divine-plan":            textsBase + "/abdul-baha/tablets-divine-plan/",
			"tablet-auguste-forel":           textsBase + "/abdul-baha/tablet-auguste-forel/",

			// The Báb
			"selections-writings-bab": textsBase + "/the-bab/selections-writings-bab/",

			// Shoghi Effendi
			"advent-divine-justice": textsBase + "/shoghi-effendi/advent-divine-justice/",
			"god-passes-by":         textsBase + "/shoghi-effendi/god-passes-by/",
			"promised-day-come":     textsBase + "/shoghi-effendi/promised-day-come/",
			"world-order-bahaullah": textsBase + "/shoghi-effendi/world-order-bahaullah/",

			// Compilations and other works
			"prayers-meditations": textsBase + "/bahaullah/prayers-meditations/",
			"days-remembrance":    textsBase + "/compilations/days-remembrance/",
			"light-of-the-world":  textsBase + "/compilations/light-of-the-world/",
			"turning-point":       textsBase + "/compilations/turning-point/",
		},
	}
}

// AuthorOptions returns the author filter choices offered by the front-ends,
// in display order.
func AuthorOptions() []string {
	return []string{
		AuthorBahaullah,
		AuthorAbdulBaha,
		AuthorTheBab,
		AuthorShoghi,
		AuthorHouse,
		AuthorCompilation,
	}
}

// Classify returns the author category for a corpus filename.
//
// The stem (extension stripped, lowercased) is looked up in the catalog's
// author sets. Stems outside every set that start with a "19" or "20" year
// prefix and contain an underscore follow the dated-message naming convention
// and classify as Universal House of Justice. Anything else is AuthorOther.
// Never fails.
func (c *Catalog) Classify(filename string) string {
	stem := Stem(filename)
	for author, set := range c.Authors {
		if set[stem] {
			return author
		}
	}
	if (strings.HasPrefix(stem, "19") || strings.HasPrefix(stem, "20")) && strings.Contains(stem, "_") {
		return AuthorHouse
	}
	return AuthorOther
}

// ResolveURL returns the canonical library URL for a corpus filename, or the
// library root when the work has no specific entry. Never fails.
func (c *Catalog) ResolveURL(filename string) string {
	if url, ok := c.URLs[Stem(filename)]; ok {
		return url
	}
	return Root
}

// Stem normalizes a filename for catalog lookup: the final extension is
// stripped and the remainder lowercased.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

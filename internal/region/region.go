// Package region maps a market code to document vocabulary, default section text
// and locale formatting.
package region

import (
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code is a supported market. UK, US and AU are document regions; IE, NZ and CA are
// UI-only locales that borrow the vocabulary of a document region.
type Code string

const (
	UK Code = "UK"
	US Code = "US"
	AU Code = "AU"

	IE Code = "IE"
	NZ Code = "NZ"
	CA Code = "CA"
)

// Base is used for blank or unrecognised input.
const Base = UK

type policy struct {
	document Code
	tag      language.Tag
	unit     currency.Unit
}

var policies = map[Code]policy{
	UK: {document: UK, tag: language.BritishEnglish, unit: currency.GBP},
	US: {document: US, tag: language.AmericanEnglish, unit: currency.USD},
	AU: {document: AU, tag: language.MustParse("en-AU"), unit: currency.AUD},
	IE: {document: UK, tag: language.MustParse("en-IE"), unit: currency.EUR},
	NZ: {document: AU, tag: language.MustParse("en-NZ"), unit: currency.NZD},
	CA: {document: US, tag: language.MustParse("en-CA"), unit: currency.CAD},
}

var aliases = map[string]Code{
	"GB":    UK,
	"EN-GB": UK,
	"USA":   US,
	"EN-US": US,
	"EN-AU": AU,
	"EN-IE": IE,
	"EN-NZ": NZ,
	"EN-CA": CA,
}

// All returns every supported code, document regions first.
func All() []Code {
	return []Code{UK, US, AU, IE, NZ, CA}
}

// Parse normalises raw input; anything unrecognised becomes Base.
func Parse(raw string) Code {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "_", "-")
	if _, ok := policies[Code(key)]; ok {
		return Code(key)
	}
	if code, ok := aliases[key]; ok {
		return code
	}
	return Base
}

func (c Code) policy() policy {
	if p, ok := policies[c]; ok {
		return p
	}
	return policies[Base]
}

// Document returns the document region whose vocabulary c uses.
func (c Code) Document() Code { return c.policy().document }

// Defaults describes the region's initial references section.
type Defaults struct {
	ReferencesEnabled bool   `json:"references_enabled"`
	ReferencesText    string `json:"references_text"`
}

// RegionDefaults returns the default references setting for c.
func RegionDefaults(c Code) Defaults {
	if c.Document() == US {
		return Defaults{ReferencesEnabled: true, ReferencesText: "References available upon request."}
	}
	return Defaults{ReferencesEnabled: true, ReferencesText: "References available on request."}
}

// DocumentLabel is "Résumé" for US vocabulary and "CV" elsewhere.
func DocumentLabel(c Code) string {
	if c.Document() == US {
		return "Résumé"
	}
	return "CV"
}

// SectionLabel returns the heading shown for a section key ("summary", "employment",
// "qualifications", "skills", "references"). Unknown keys are title-cased.
func SectionLabel(key string, c Code) string {
	us := c.Document() == US
	switch key {
	case "summary":
		return "Professional Summary"
	case "employment":
		if us {
			return "Work Experience"
		}
		return "Employment History"
	case "qualifications":
		if us {
			return "Education & Certifications"
		}
		return "Qualifications & Certifications"
	case "skills":
		if us {
			return "Skills"
		}
		return "Key Skills"
	case "references":
		return "References"
	}
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// LocaleTag returns the BCP-47 tag used for dates and numbers.
func LocaleTag(c Code) language.Tag { return c.policy().tag }

// LocaleString is LocaleTag rendered as a string, e.g. "en-GB".
func LocaleString(c Code) string { return LocaleTag(c).String() }

// FormatDate renders t month-first for US vocabulary and day-first elsewhere.
func FormatDate(t time.Time, c Code) string {
	if c.Document() == US {
		return t.Format("January 2, 2006")
	}
	return t.Format("2 January 2006")
}

// Currency returns the currency used for pricing in c.
func Currency(c Code) currency.Unit { return c.policy().unit }

// PriceLabel formats an amount given in minor units (pence, cents) for display.
func PriceLabel(c Code, minor int64) string {
	p := message.NewPrinter(LocaleTag(c))
	amount := Currency(c).Amount(float64(minor) / 100)
	return p.Sprint(currency.Symbol(amount))
}

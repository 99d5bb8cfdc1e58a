// Package model holds the research console's data types: document sources,
// search filters, result pages, full documents and chat turns.
package model

// Source identifies a judicial or administrative body whose decisions are
// searchable. The value is the display name the search service expects on
// the wire.
type Source string

const (
	AnayasaMahkemesi    Source = "Anayasa Mahkemesi"
	Yargitay            Source = "Yargıtay"
	Danistay            Source = "Danıştay"
	BAM                 Source = "Bölge Adliye Mahkemeleri"
	BIM                 Source = "Bölge İdare Mahkemeleri"
	UyusmazlikMahkemesi Source = "Uyuşmazlık Mahkemesi"
	YerelHukuk          Source = "Yerel Hukuk Mahkemeleri"
	IstinafHukuk        Source = "İstinaf Hukuk Mahkemeleri"
	KYB                 Source = "Kanun Yararına Bozma"
	EmsalUYAP           Source = "Emsal (UYAP)"
	KIK                 Source = "KİK (Kamu İhale Kurulu)"
	RekabetKurumu       Source = "Rekabet Kurumu"
	Sayistay            Source = "Sayıştay"
	KVKK                Source = "KVKK"
	BDDK                Source = "BDDK"
)

// AllSources lists every source in display order.
var AllSources = []Source{
	AnayasaMahkemesi,
	Yargitay,
	Danistay,
	BAM,
	BIM,
	UyusmazlikMahkemesi,
	YerelHukuk,
	IstinafHukuk,
	KYB,
	EmsalUYAP,
	KIK,
	RekabetKurumu,
	Sayistay,
	KVKK,
	BDDK,
}

// Valid reports whether s is a member of the enumeration.
func (s Source) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

func (s Source) String() string { return string(s) }

// Chambers returns the chamber/board options a source can be narrowed to,
// or nil if the source has no chamber filter.
func (s Source) Chambers() []string {
	switch s {
	case Yargitay:
		return yargitayChambers
	case Danistay:
		return danistayChambers
	case Sayistay:
		return sayistayChambers
	}
	return nil
}

// HasChamberFilter reports whether s supports a chamber filter.
func (s Source) HasChamberFilter() bool {
	return s.Chambers() != nil
}

var (
	yargitayChambers = []string{
		"1. Hukuk Dairesi", "2. Hukuk Dairesi", "3. Hukuk Dairesi", "4. Hukuk Dairesi",
		"1. Ceza Dairesi", "2. Ceza Dairesi", "3. Ceza Dairesi",
		"Ceza Genel Kurulu", "Hukuk Genel Kurulu",
	}
	danistayChambers = []string{
		"1. Daire", "2. Daire", "3. Daire",
		"Vergi Dava Daireleri Kurulu", "İdari Dava Daireleri Kurulu",
	}
	sayistayChambers = []string{"1. Daire", "2. Daire", "Temyiz Kurulu"}
)

// ContainsSource reports whether sources includes s.
func ContainsSource(sources []Source, s Source) bool {
	for _, src := range sources {
		if src == s {
			return true
		}
	}
	return false
}

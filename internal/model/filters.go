package model

// FilterKey names one optional search refinement.
type FilterKey string

const (
	FilterYargitayDaire FilterKey = "yargitayDaire"
	FilterDanistayDaire FilterKey = "danistayDaire"
	FilterSayistayDaire FilterKey = "sayistayDaire"
	FilterStartDate     FilterKey = "startDate"
	FilterEndDate       FilterKey = "endDate"
)

// FilterSet holds optional search refinements. Chamber keys only matter when
// the matching source is selected; the search service ignores the rest.
// Dates are YYYY-MM-DD strings. Empty means unset.
type FilterSet struct {
	YargitayDaire string `json:"yargitayDaire,omitempty" toml:"yargitay_daire,omitempty"`
	DanistayDaire string `json:"danistayDaire,omitempty" toml:"danistay_daire,omitempty"`
	SayistayDaire string `json:"sayistayDaire,omitempty" toml:"sayistay_daire,omitempty"`
	StartDate     string `json:"startDate,omitempty" toml:"start_date,omitempty"`
	EndDate       string `json:"endDate,omitempty" toml:"end_date,omitempty"`
}

// Get returns the value stored under key.
func (f FilterSet) Get(key FilterKey) string {
	switch key {
	case FilterYargitayDaire:
		return f.YargitayDaire
	case FilterDanistayDaire:
		return f.DanistayDaire
	case FilterSayistayDaire:
		return f.SayistayDaire
	case FilterStartDate:
		return f.StartDate
	case FilterEndDate:
		return f.EndDate
	}
	return ""
}

// With returns a copy of f with key set to value.
func (f FilterSet) With(key FilterKey, value string) FilterSet {
	switch key {
	case FilterYargitayDaire:
		f.YargitayDaire = value
	case FilterDanistayDaire:
		f.DanistayDaire = value
	case FilterSayistayDaire:
		f.SayistayDaire = value
	case FilterStartDate:
		f.StartDate = value
	case FilterEndDate:
		f.EndDate = value
	}
	return f
}

// IsZero reports whether no refinement is set.
func (f FilterSet) IsZero() bool {
	return f == FilterSet{}
}

// ChamberKey returns the filter key that narrows s by chamber, if any.
func ChamberKey(s Source) (FilterKey, bool) {
	switch s {
	case Yargitay:
		return FilterYargitayDaire, true
	case Danistay:
		return FilterDanistayDaire, true
	case Sayistay:
		return FilterSayistayDaire, true
	}
	return "", false
}

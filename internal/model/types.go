// Package model holds the shared data-model types from spec §3 so the
// pipeline stages (internal/corrector, internal/addrparse, internal/hierarchy,
// internal/validate, internal/geocode, internal/match) can pass structured
// values between each other without import cycles. Dynamic dict-like
// component bags from the teacher's domain are re-expressed here as typed
// records whose optional fields are Field values with a Present flag, per
// the Design Note on dynamic type erasure.
package model

// EditKind enumerates the kinds of correction applied to a token, in the
// order spec §3 lists them.
type EditKind string

const (
	EditAbbreviationExpansion EditKind = "abbreviationExpansion"
	EditSpellingFix           EditKind = "spellingFix"
	EditFuzzyAdminFix         EditKind = "fuzzyAdminFix"
	EditCharacterFix          EditKind = "characterFix"
	EditCaseFix               EditKind = "caseFix"
)

// CorrectionEdit records one transformation applied during correction,
// hierarchy completion, or the parser's famous-street override, in the order
// applied. The trail is a single append-only sequence threaded through the
// whole pipeline.
type CorrectionEdit struct {
	Kind        EditKind `json:"kind"`
	Original    string   `json:"original"`
	Replacement string   `json:"replacement"`
}

// StreetType enumerates the canonical street-type suffixes from spec §3.
type StreetType string

const (
	StreetSokak  StreetType = "sokak"
	StreetCadde  StreetType = "cadde"
	StreetBulvar StreetType = "bulvar"
	StreetYol    StreetType = "yol"
)

// Field is one extracted value plus its per-field confidence (spec §3: "Each
// extracted field carries a per-field confidence in [0,1]").
type Field struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Present    bool    `json:"present"`
}

// Set assigns value/confidence and marks the field present. It only
// overwrites when the new confidence is not lower than the current one,
// which is exactly the "higher confidence wins" conflict rule from spec
// §4.4; on equal confidence the later call wins.
func (f *Field) Set(value string, confidence float64) {
	if f.Present && confidence < f.Confidence {
		return
	}
	f.Value = value
	f.Confidence = confidence
	f.Present = true
}

// AddressComponents are the optional typed fields extracted from an address
// (spec §3). buildingNo preserves compound forms like "10/A" verbatim.
type AddressComponents struct {
	Province     Field `json:"province"`
	District     Field `json:"district"`
	Neighborhood Field `json:"neighborhood"`
	Street       Field `json:"street"`
	StreetType   Field `json:"street_type"`
	BuildingNo   Field `json:"building_no"`
	ApartmentNo  Field `json:"apartment_no"`
	Floor        Field `json:"floor"`
	Block        Field `json:"block"`
	Site         Field `json:"site"`
	PostalCode   Field `json:"postal_code"`
}

// Coordinate is a WGS84 point. Turkey bounds are lat in [35.8, 42.1], lon in
// [25.7, 44.8]; anything outside is invalid (spec §3).
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// InTurkeyBounds reports whether c falls inside the Turkey bounding box.
func (c Coordinate) InTurkeyBounds() bool {
	return c.Latitude >= 35.8 && c.Latitude <= 42.1 && c.Longitude >= 25.7 && c.Longitude <= 44.8
}

// PrecisionLevel is the ordered enumeration from spec §3.
type PrecisionLevel string

const (
	PrecisionStreet       PrecisionLevel = "street"
	PrecisionNeighborhood PrecisionLevel = "neighborhood"
	PrecisionDistrict     PrecisionLevel = "district"
	PrecisionProvince     PrecisionLevel = "province"
	PrecisionNone         PrecisionLevel = "none"
)

// DefaultConfidence returns the default confidence for a precision level,
// per spec §3's {0.95, 0.85, 0.75, 0.50, 0.0} table.
func (p PrecisionLevel) DefaultConfidence() float64 {
	switch p {
	case PrecisionStreet:
		return 0.95
	case PrecisionNeighborhood:
		return 0.85
	case PrecisionDistrict:
		return 0.75
	case PrecisionProvince:
		return 0.50
	default:
		return 0.0
	}
}

// GeocodeAlternative is one other precision level's coordinate, returned
// alongside the primary result for explainability (spec §4.7).
type GeocodeAlternative struct {
	Precision  PrecisionLevel `json:"precision"`
	Coordinate Coordinate     `json:"coordinate"`
	Confidence float64        `json:"confidence"`
}

// GeocodeResult is the Geocoder's output.
type GeocodeResult struct {
	Coordinate   Coordinate           `json:"coordinate"`
	Precision    PrecisionLevel       `json:"precision"`
	Confidence   float64              `json:"confidence"`
	Alternatives []GeocodeAlternative `json:"alternatives"`
}

// SimilarityBreakdown is the per-channel score from spec §4.8/§3.
type SimilarityBreakdown struct {
	Semantic     float64 `json:"semantic"`
	Geographic   float64 `json:"geographic"`
	Textual      float64 `json:"textual"`
	Hierarchical float64 `json:"hierarchical"`
}

// MatchResult is the Matcher's output.
type MatchResult struct {
	Overall       float64            `json:"overall"`
	Breakdown     SimilarityBreakdown `json:"breakdown"`
	Confidence    float64            `json:"confidence"`
	MatchDecision bool               `json:"match_decision"`
	Contributions map[string]float64 `json:"contributions"`
	TimingMs      float64            `json:"timing_ms"`
}

// Suggestion is a fuzzy-match candidate surfaced by the Validator on
// failure, or returned alongside PipelineResult for operator follow-up
// (adapted from the teacher's app/models/address_review.go, with the
// persistence/review-workflow parts dropped — see DESIGN.md).
type Suggestion struct {
	Field      string  `json:"field"`
	Candidate  string  `json:"candidate"`
	Similarity float64 `json:"similarity"`
}

// ValidationStatus is the Validator's five-tier verdict from spec §4.6.
type ValidationStatus string

const (
	ValidationCompleteTriple ValidationStatus = "complete_triple"
	ValidationProvinceNeigh  ValidationStatus = "province_neighborhood"
	ValidationProvinceDist   ValidationStatus = "province_district"
	ValidationProvinceOnly   ValidationStatus = "province_only"
	ValidationInsufficient   ValidationStatus = "insufficient"
)

// ValidationResult is the Validator's output.
type ValidationResult struct {
	IsValid        bool             `json:"is_valid"`
	Status         ValidationStatus `json:"status"`
	Confidence     float64          `json:"confidence"`
	Completeness   float64          `json:"completeness"`
	Warnings       []string         `json:"warnings"`
	Errors         []string         `json:"errors"`
	Suggestions    []Suggestion     `json:"suggestions"`
}

// StepTiming records one pipeline stage's wall-clock cost in milliseconds.
type StepTiming struct {
	Stage      string  `json:"stage"`
	DurationMs float64 `json:"duration_ms"`
}

// Status is the PipelineResult's top-level outcome.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// PipelineResult is the top-level per-address value from spec §3/§7.
type PipelineResult struct {
	Input         string             `json:"input"`
	Corrected     string             `json:"corrected"`
	Components    AddressComponents  `json:"components"`
	Edits         []CorrectionEdit   `json:"edits"`
	Validation    ValidationResult   `json:"validation"`
	Precision     PrecisionLevel     `json:"precision"`
	Coordinate    Coordinate         `json:"coordinate"`
	Confidence    float64            `json:"confidence"`
	StepTimingsMs []StepTiming       `json:"step_timings_ms"`
	Status        Status             `json:"status"`
	Errors        []string           `json:"errors"`
	Suggestions   []Suggestion       `json:"suggestions"`
}

package model

// ISODate is the layout used for default extraction dates
const ISODate = "2006-01-02"

// UnknownDoctor is the doctor name used when no provider is found
const UnknownDoctor = "Unknown"

// MaxKeyFindings caps the number of key findings kept per document
const MaxKeyFindings = 3

// ExtractedSummary is the structured view of one OCR'd clinical document
type ExtractedSummary struct {
	DoctorName  string   `json:"doctor_name"`  // Defaults to "Unknown"
	Date        string   `json:"date"`         // As found in the text, or the extraction date (ISO)
	Diagnosis   string   `json:"diagnosis"`    // May be empty
	Medications []string `json:"medications"`  // Every medication line, in document order
	KeyFindings []string `json:"key_findings"` // At most 3

	// Optional fields: omitted when the document does not mention them
	Vitals     *Vitals `json:"vitals,omitempty"`
	Complaints string  `json:"complaints,omitempty"`
	Advice     string  `json:"advice,omitempty"`
	FollowUp   string  `json:"follow_up,omitempty"`

	DateFound bool `json:"date_found"` // false when Date is the extraction-time default
}

// Vitals holds the measurements found in a document, each optional
type Vitals struct {
	Height        string `json:"height,omitempty"`
	Weight        string `json:"weight,omitempty"`
	BMI           string `json:"bmi,omitempty"`
	BloodPressure string `json:"blood_pressure,omitempty"`
}

// IsEmpty reports whether no vital sign was found
func (v Vitals) IsEmpty() bool {
	return v.Height == "" && v.Weight == "" && v.BMI == "" && v.BloodPressure == ""
}

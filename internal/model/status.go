package model

import "fmt"

// PublishStatus is the workflow state of a measure version. The numeric
// values define the forward order of the review pipeline.
type PublishStatus string

const (
	StatusRejected         PublishStatus = "REJECTED"
	StatusDraft            PublishStatus = "DRAFT"
	StatusInternalReview   PublishStatus = "INTERNAL_REVIEW"
	StatusDepartmentReview PublishStatus = "DEPARTMENT_REVIEW"
	StatusApproved         PublishStatus = "APPROVED"
	StatusPublished        PublishStatus = "PUBLISHED"
	StatusUnpublished      PublishStatus = "UNPUBLISHED"
)

var statusOrder = map[PublishStatus]int{
	StatusRejected:         0,
	StatusDraft:            1,
	StatusInternalReview:   2,
	StatusDepartmentReview: 3,
	StatusApproved:         4,
	StatusPublished:        5,
	StatusUnpublished:      6,
}

// Numeric returns the pipeline position of the status.
func (s PublishStatus) Numeric() int {
	return statusOrder[s]
}

// Next returns the next forward state in the review pipeline.
func (s PublishStatus) Next() (PublishStatus, error) {
	switch s {
	case StatusDraft:
		return StatusInternalReview, nil
	case StatusInternalReview:
		return StatusDepartmentReview, nil
	case StatusDepartmentReview:
		return StatusApproved, nil
	case StatusApproved:
		return StatusPublished, nil
	}
	return "", fmt.Errorf("no next state after %s", s)
}

// CanReject reports whether a version in this state may be rejected.
func (s PublishStatus) CanReject() bool {
	return s == StatusInternalReview || s == StatusDepartmentReview
}

// NewVersionType selects how the next version number of a measure is derived.
type NewVersionType string

const (
	// VersionTypeMinor increments the minor component: 1.2 -> 1.3.
	VersionTypeMinor NewVersionType = "minor"
	// VersionTypeMajor increments the major component: 1.2 -> 2.0.
	VersionTypeMajor NewVersionType = "major"
	// VersionTypeNewMeasure forks a fresh lineage starting at 1.0.
	VersionTypeNewMeasure NewVersionType = "new_measure"
)

// TypeOfData flags the provenance of a data source.
type TypeOfData string

const (
	TypeOfDataAdministrative TypeOfData = "Administrative"
	TypeOfDataSurvey         TypeOfData = "Survey"
)

// UKCountry is the geographic coverage of a measure.
type UKCountry string

const (
	CountryEngland         UKCountry = "England"
	CountryWales           UKCountry = "Wales"
	CountryScotland        UKCountry = "Scotland"
	CountryNorthernIreland UKCountry = "Northern Ireland"
)

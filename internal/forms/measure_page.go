package forms

import (
	"time"

	"github.com/rdu/measures/internal/model"
)

const dateFormat = "2006-01-02"

// MeasurePageForm edits the page-level content of a measure version.
// Progress can be saved half-way through, so outside review almost every
// field is optional; the review variant enforces the publication checklist.
type MeasurePageForm struct {
	Form

	Title             *StringField
	InternalReference *StringField
	PublicationDate   *StringField
	TimeCovered       *StringField

	England         *BoolField
	Wales           *BoolField
	Scotland        *BoolField
	NorthernIreland *BoolField

	LowestLevelOfGeographyID *RadioField

	SuppressionAndDisclosure *StringField
	Estimation               *StringField

	Summary                    *StringField
	MeasureSummary             *StringField
	NeedToKnow                 *StringField
	EthnicityDefinitionSummary *StringField

	Methodology                 *StringField
	RelatedPublications         *StringField
	QMIURL                      *StringField
	FurtherTechnicalInformation *StringField

	ExternalEditSummary *StringField
	InternalEditSummary *StringField

	ContactName   *StringField
	ContactEmail  *StringField
	ContactPhone  *StringField
	Contact2Name  *StringField
	Contact2Email *StringField
	Contact2Phone *StringField
}

// NewMeasurePageForm builds the form. With review set, the checklist fields
// become required and the area-covered group must have at least one country.
func NewMeasurePageForm(review bool, geographies []*model.LowestLevelOfGeography) *MeasurePageForm {
	geographyChoices := make([]Choice, 0, len(geographies))
	for _, g := range geographies {
		label := g.Name
		if g.Description != nil {
			label = g.Name + " " + *g.Description
		}
		geographyChoices = append(geographyChoices, Choice{Value: g.Name, Label: label})
	}

	f := &MeasurePageForm{
		Title:             NewStringField("title", "Title", "", Required(""), MaxLength(255)),
		InternalReference: NewStringField("internal_reference", "Measure code (optional)", ""),
		PublicationDate:   NewStringField("publication_date", "Publication date", "", Optional(), ISODate()),
		TimeCovered:       NewStringField("time_covered", "Time period covered", ""),

		England:         NewBoolField("england", string(model.CountryEngland)),
		Wales:           NewBoolField("wales", string(model.CountryWales)),
		Scotland:        NewBoolField("scotland", string(model.CountryScotland)),
		NorthernIreland: NewBoolField("northern_ireland", string(model.CountryNorthernIreland)),

		SuppressionAndDisclosure: NewStringField("suppression_and_disclosure",
			"Suppression rules and disclosure control (optional)", ""),
		Estimation: NewStringField("estimation", "Rounding (optional)", ""),

		Summary:                    NewStringField("summary", "Main findings", ""),
		MeasureSummary:             NewStringField("measure_summary", "What the data measures", ""),
		NeedToKnow:                 NewStringField("need_to_know", "Things you need to know", ""),
		EthnicityDefinitionSummary: NewStringField("ethnicity_definition_summary", "The ethnic categories used in this data", ""),

		Methodology:                 NewStringField("methodology", "Methodology", ""),
		RelatedPublications:         NewStringField("related_publications", "Related publications (optional)", ""),
		QMIURL:                      NewStringField("qmi_url", "Quality Methodology Information URL", ""),
		FurtherTechnicalInformation: NewStringField("further_technical_information", "Further technical information (optional)", ""),

		ExternalEditSummary: NewStringField("external_edit_summary", "External edit summary", ""),
		InternalEditSummary: NewStringField("internal_edit_summary", "Internal edit summary", ""),

		ContactName:   NewStringField("contact_name", "Name", ""),
		ContactEmail:  NewStringField("contact_email", "Email", ""),
		ContactPhone:  NewStringField("contact_phone", "Phone number", ""),
		Contact2Name:  NewStringField("contact_2_name", "Name", ""),
		Contact2Email: NewStringField("contact_2_email", "Email", ""),
		Contact2Phone: NewStringField("contact_2_phone", "Phone number", ""),
	}

	geographyValidators := []Validator{Optional()}
	if review {
		geographyValidators = []Validator{Required("Select one")}
	}
	f.LowestLevelOfGeographyID = NewRadioField("lowest_level_of_geography_id", "Lowest level of geography", RadioOptions{
		Choices:    geographyChoices,
		Validators: geographyValidators,
	})

	if review {
		f.TimeCovered.validators = []Validator{Required("")}
		f.England.validators = []Validator{AnyOf("Select at least one", f.England, f.Wales, f.Scotland, f.NorthernIreland)}
		f.MeasureSummary.validators = []Validator{Required("")}
		f.Summary.validators = []Validator{Required("")}
		f.NeedToKnow.validators = []Validator{Required("")}
		f.EthnicityDefinitionSummary.validators = []Validator{Required("")}
		f.Methodology.validators = []Validator{Required("")}
		f.InternalEditSummary.validators = []Validator{Required("")}
	}

	f.register(
		f.Title, f.InternalReference, f.PublicationDate, f.TimeCovered,
		f.England, f.Wales, f.Scotland, f.NorthernIreland,
		f.LowestLevelOfGeographyID,
		f.SuppressionAndDisclosure, f.Estimation,
		f.Summary, f.MeasureSummary, f.NeedToKnow, f.EthnicityDefinitionSummary,
		f.Methodology, f.RelatedPublications, f.QMIURL, f.FurtherTechnicalInformation,
		f.ExternalEditSummary, f.InternalEditSummary,
		f.ContactName, f.ContactEmail, f.ContactPhone,
		f.Contact2Name, f.Contact2Email, f.Contact2Phone,
	)

	return f
}

// Populate writes the validated form data onto a measure version. The title
// and slug are owned by the service, which derives them on create.
func (f *MeasurePageForm) Populate(mv *model.MeasureVersion) {
	mv.InternalReference = f.InternalReference.Data
	mv.TimeCovered = f.TimeCovered.Data

	mv.England = f.England.Data
	mv.Wales = f.Wales.Data
	mv.Scotland = f.Scotland.Data
	mv.NorthernIreland = f.NorthernIreland.Data
	mv.LowestLevelOfGeographyID = f.LowestLevelOfGeographyID.DataOrNil()

	mv.SuppressionAndDisclosure = f.SuppressionAndDisclosure.Data
	mv.Estimation = f.Estimation.Data

	mv.Summary = f.Summary.Data
	mv.MeasureSummary = f.MeasureSummary.Data
	mv.NeedToKnow = f.NeedToKnow.Data
	mv.EthnicityDefinitionSummary = f.EthnicityDefinitionSummary.Data

	mv.Methodology = f.Methodology.Data
	mv.RelatedPublications = f.RelatedPublications.Data
	mv.QMIURL = f.QMIURL.Data
	mv.FurtherTechnicalInformation = f.FurtherTechnicalInformation.Data

	mv.ExternalEditSummary = f.ExternalEditSummary.Data
	mv.InternalEditSummary = f.InternalEditSummary.Data

	mv.ContactName = f.ContactName.Data
	mv.ContactEmail = f.ContactEmail.Data
	mv.ContactPhone = f.ContactPhone.Data
	mv.Contact2Name = f.Contact2Name.Data
	mv.Contact2Email = f.Contact2Email.Data
	mv.Contact2Phone = f.Contact2Phone.Data

	if f.PublicationDate.Data != "" {
		if t, err := time.Parse(dateFormat, f.PublicationDate.Data); err == nil {
			mv.PublicationDate = &t
		}
	} else {
		mv.PublicationDate = nil
	}
}

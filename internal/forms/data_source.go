package forms

import (
	"fmt"

	"github.com/rdu/measures/internal/model"
)

// TypeOfDataMembers is the explicit member list of the TypeOfData
// enumeration, used to build checkbox choices (value = name, label = display
// value).
var TypeOfDataMembers = []EnumMember{
	{Name: "ADMINISTRATIVE", Value: string(model.TypeOfDataAdministrative)},
	{Name: "SURVEY", Value: string(model.TypeOfDataSurvey)},
}

// DataSourceForm edits one data source of a measure version.
type DataSourceForm struct {
	Form

	// RemoveDataSource is ticked by the editor to delete this source.
	RemoveDataSource *BoolField

	Title                      *StringField
	TypeOfData                 *CheckboxField
	TypeOfStatisticID          *RadioField
	Publisher                  *StringField
	SourceURL                  *StringField
	PublicationDate            *StringField
	NoteOnCorrectionsOrUpdates *StringField
	FrequencyOfReleaseOther    *StringField
	FrequencyOfReleaseID       *RadioField
	Purpose                    *StringField
}

// NewDataSourceForm builds the form with choice lists from the reference
// tables. The elseOptional review validators terminate their chains, so they
// are last.
func NewDataSourceForm(
	sendingToReview bool,
	typesOfStatistic []*model.TypeOfStatistic,
	frequencies []*model.FrequencyOfRelease,
) *DataSourceForm {
	statisticChoices := make([]Choice, 0, len(typesOfStatistic))
	for _, c := range typesOfStatistic {
		statisticChoices = append(statisticChoices, Choice{Value: fmt.Sprint(c.ID), Label: c.Internal})
	}

	frequencyChoices := make([]Choice, 0, len(frequencies))
	for _, c := range frequencies {
		frequencyChoices = append(frequencyChoices, Choice{Value: fmt.Sprint(c.ID), Label: c.Description})
	}

	f := &DataSourceForm{
		RemoveDataSource: NewBoolField("remove_data_source", "Remove data source"),
		Title: NewStringField("title", "Title of data source", "For example, Crime and Policing Survey",
			RequiredForReview("", false), MaxLength(255)),
		TypeOfData: NewCheckboxField("type_of_data", "Type of data", CheckboxOptions{
			Enum:       TypeOfDataMembers,
			Validators: []Validator{RequiredForReview("", false)},
		}),
		TypeOfStatisticID: NewRadioField("type_of_statistic_id", "Type of statistic", RadioOptions{
			Choices:    statisticChoices,
			Validators: []Validator{RequiredForReview("Select one", true)},
		}),
		Publisher: NewStringField("publisher", "Publisher", "For example, Ministry of Justice",
			RequiredForReview("", false)),
		SourceURL: NewStringField("source_url", "URL",
			"Link to a web page, not a spreadsheet or a PDF",
			RequiredForReview("", false), MaxLength(255)),
		PublicationDate: NewStringField("publication_date", "Publication release date",
			"For example, 1 January 2016", MaxLength(255)),
		NoteOnCorrectionsOrUpdates: NewStringField("note_on_corrections_or_updates",
			"Note on corrections or updates (optional)", ""),
		FrequencyOfReleaseOther: NewStringField("frequency_of_release_other",
			"Other publication frequency", "", MaxLength(255)),
		Purpose: NewStringField("purpose", "Purpose of data source", "",
			RequiredForReview("", false)),
	}

	f.FrequencyOfReleaseID = NewRadioField("frequency_of_release_id", "Publication frequency", RadioOptions{
		Choices: frequencyChoices,
	})
	f.FrequencyOfReleaseID.validators = append(f.FrequencyOfReleaseID.validators,
		OtherRequired(f.FrequencyOfReleaseID, f.FrequencyOfReleaseOther),
		RequiredForReview("Select one", true),
	)
	f.FrequencyOfReleaseID.SetOtherField(f.FrequencyOfReleaseOther)

	f.SendingToReview = sendingToReview
	f.register(
		f.RemoveDataSource,
		f.Title,
		f.TypeOfData,
		f.TypeOfStatisticID,
		f.Publisher,
		f.SourceURL,
		f.PublicationDate,
		f.NoteOnCorrectionsOrUpdates,
		f.FrequencyOfReleaseOther,
		f.FrequencyOfReleaseID,
		f.Purpose,
	)

	return f
}

// Populate writes the validated form data onto a data source row. Blank
// reference values become nil, not empty strings.
func (f *DataSourceForm) Populate(ds *model.DataSource) {
	ds.Title = f.Title.Data
	ds.AdministrativeData = f.TypeOfData.Contains("ADMINISTRATIVE")
	ds.SurveyData = f.TypeOfData.Contains("SURVEY")
	ds.TypeOfStatisticID = f.TypeOfStatisticID.DataUint()
	ds.Publisher = f.Publisher.DataOrNil()
	ds.SourceURL = f.SourceURL.Data
	ds.PublicationDate = f.PublicationDate.Data
	ds.NoteOnCorrectionsOrUpdates = f.NoteOnCorrectionsOrUpdates.Data
	ds.FrequencyOfReleaseID = f.FrequencyOfReleaseID.DataUint()
	ds.FrequencyOfReleaseOther = f.FrequencyOfReleaseOther.Data
	ds.Purpose = f.Purpose.Data
}

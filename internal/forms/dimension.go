package forms

import "github.com/rdu/measures/internal/model"

// DimensionForm edits a dimension of a measure version. The review variant
// additionally requires a summary.
type DimensionForm struct {
	Form

	Title      *StringField
	TimePeriod *StringField
	Summary    *StringField
}

func NewDimensionForm(review bool) *DimensionForm {
	f := &DimensionForm{
		Title:      NewStringField("title", "Title", "", Required("")),
		TimePeriod: NewStringField("time_period", "Time period covered", ""),
		Summary:    NewStringField("summary", "Summary", ""),
	}

	if review {
		f.Summary.validators = []Validator{Required("")}
	}

	f.register(f.Title, f.TimePeriod, f.Summary)
	return f
}

func (f *DimensionForm) Populate(d *model.Dimension) {
	d.Title = f.Title.Data
	d.TimePeriod = f.TimePeriod.Data
	d.Summary = f.Summary.Data
}

// UploadForm edits the metadata of an attached source file. The file content
// itself is handled by the upload store, not the form.
type UploadForm struct {
	Form

	GUID        *StringField
	Title       *StringField
	FileName    *StringField
	Description *StringField
}

func NewUploadForm() *UploadForm {
	f := &UploadForm{
		GUID:        NewStringField("guid", "", ""),
		Title:       NewStringField("title", "Title", "", Required("")),
		FileName:    NewStringField("file_name", "File in CSV format", "", Required("Please choose a file for users to download")),
		Description: NewStringField("description", "", ""),
	}

	f.register(f.GUID, f.Title, f.FileName, f.Description)
	return f
}

func (f *UploadForm) Populate(u *model.Upload) {
	u.Title = f.Title.Data
	u.FileName = f.FileName.Data
	u.Description = f.Description.Data
}

// NewVersionForm selects the update tier when versioning a measure.
type NewVersionForm struct {
	Form

	VersionType *RadioField
}

func NewNewVersionForm() *NewVersionForm {
	f := &NewVersionForm{
		VersionType: NewRadioField("version_type", "New version type", RadioOptions{
			Choices: []Choice{
				{Value: string(model.VersionTypeMinor), Label: "Minor"},
				{Value: string(model.VersionTypeMajor), Label: "Major"},
				{Value: string(model.VersionTypeNewMeasure), Label: "New measure"},
			},
			Validators: []Validator{Required("")},
		}),
	}

	f.register(f.VersionType)
	return f
}

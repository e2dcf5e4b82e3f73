// Package form validates user input before it is sent and maps backend
// validation errors back onto form fields.
package form

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"rentoo/internal/apiclient"
)

type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	TypeSelect   FieldType = "select"
	TypeFile     FieldType = "file"
	TypeDate     FieldType = "date"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one input. Min and Max bound the numeric value for number
// fields and the character count for text fields.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Min      *float64
	Max      *float64
	Options  []Option
	// Accept is a comma separated list of MIME types; "image/*" style wildcards are allowed.
	Accept   string
	Multiple bool
	MaxFiles int
}

// File is a selected file, described by what validation needs.
type File struct {
	Name        string
	ContentType string
}

// Submission is the state of a form at submit time.
type Submission struct {
	Values map[string]string
	Files  map[string][]File
}

// Errors maps field name to message. GeneralField holds form-wide errors.
type Errors map[string]string

const GeneralField = apiclient.GeneralField

func (e Errors) Empty() bool {
	return len(e) == 0
}

// First returns the error of the first field, in form order, that has one.
func (e Errors) First(fields []Field) (string, string, bool) {
	if msg, ok := e[GeneralField]; ok {
		return GeneralField, msg, true
	}
	for _, f := range fields {
		if msg, ok := e[f.Name]; ok {
			return f.Name, msg, true
		}
	}
	return "", "", false
}

// FromAPI maps a failed submission onto form errors. A string detail goes
// to GeneralField; a list of field errors goes to the named fields. Entries
// with no field name are kept under GeneralField.
func FromAPI(err error) Errors {
	if err == nil {
		return nil
	}
	out := Errors{}

	var fe *apiclient.FieldErrors
	if errors.As(err, &fe) {
		var general []string
		for _, entry := range fe.Errors {
			if len(entry.Loc) > 1 {
				name := fmt.Sprint(entry.Loc[1])
				if _, exists := out[name]; !exists {
					out[name] = entry.Msg
				}
				continue
			}
			general = append(general, entry.Msg)
		}
		if len(general) > 0 {
			out[GeneralField] = strings.Join(general, "; ")
		}
		return out
	}

	out[GeneralField] = apiclient.UserMessage(err)
	return out
}

// Merge replaces e with the errors of a failed submission.
func (e Errors) Merge(err error) Errors {
	if err == nil {
		return e
	}
	return FromAPI(err)
}

// Validate checks every field of sub against its definition.
func Validate(fields []Field, sub Submission) Errors {
	errs := Errors{}
	for _, f := range fields {
		if msg := validateField(f, sub); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

func validateField(f Field, sub Submission) string {
	if f.Type == TypeFile {
		return validateFiles(f, sub.Files[f.Name])
	}

	value := strings.TrimSpace(sub.Values[f.Name])
	if value == "" {
		if f.Required {
			return "This field is required"
		}
		return ""
	}

	switch f.Type {
	case TypeNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "Enter a valid number"
		}
		if f.Min != nil && n < *f.Min {
			return "Minimum value: " + formatNumber(*f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return "Maximum value: " + formatNumber(*f.Max)
		}
	case TypeText:
		length := float64(utf8.RuneCountInString(value))
		if f.Min != nil && *f.Min > 0 && length < *f.Min {
			return fmt.Sprintf("Minimum %s characters", formatNumber(*f.Min))
		}
		if f.Max != nil && *f.Max > 0 && length > *f.Max {
			return fmt.Sprintf("Maximum %s characters", formatNumber(*f.Max))
		}
	case TypeSelect:
		for _, opt := range f.Options {
			if opt.Value == value {
				return ""
			}
		}
		return "Select one of the available options"
	case TypeDate:
		if !dateRe.MatchString(value) {
			return "Use the YYYY-MM-DD format"
		}
	}
	return ""
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validateFiles(f Field, files []File) string {
	if len(files) == 0 {
		if f.Required {
			return "This field is required"
		}
		return ""
	}
	if !f.Multiple && len(files) > 1 {
		return "Only one file can be attached"
	}
	if f.MaxFiles > 0 && len(files) > f.MaxFiles {
		return fmt.Sprintf("At most %d files", f.MaxFiles)
	}
	if f.Accept == "" {
		return ""
	}
	for _, file := range files {
		if !Accepts(f.Accept, file.ContentType) {
			return "Unsupported file type. Allowed: " + f.Accept
		}
	}
	return ""
}

// Accepts reports whether contentType matches one entry of accept.
func Accepts(accept, contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		return false
	}
	for _, pattern := range strings.Split(accept, ",") {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if strings.HasPrefix(contentType, prefix+"/") {
				return true
			}
			continue
		}
		if pattern == contentType {
			return true
		}
	}
	return false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func ptr(v float64) *float64 {
	return &v
}

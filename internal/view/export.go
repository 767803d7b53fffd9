package view

import (
	"github.com/tasjeel-app/tasjeel/pkg/export"
)

var rosterHeaders = []string{"Name", "ID Number", "Mobile", "Email", "Course", "Course Date", "Age", "Accepted"}

// RosterDataset flattens the currently visible records, with both
// predicates applied, into an exportable dataset.
func (c *Controller) RosterDataset() export.Dataset {
	visible := c.Visible()
	rows := make([][]string, 0, len(visible))
	for _, s := range visible {
		accepted := "no"
		if s.Accepted {
			accepted = "yes"
		}
		rows = append(rows, []string{
			s.Name, s.IDNumber, s.Mobile, s.Email,
			s.CourseName, s.CourseDate.String(), s.Age, accepted,
		})
	}
	return export.Dataset{Title: "Registered Students", Headers: rosterHeaders, Rows: rows}
}

// ExportCSV renders the visible roster as CSV.
func (c *Controller) ExportCSV() ([]byte, error) {
	return export.CSV(c.RosterDataset())
}

// ExportPDF renders the visible roster as a PDF table.
func (c *Controller) ExportPDF() ([]byte, error) {
	return export.PDF(c.RosterDataset())
}

// Package complaint provides the complaint record, form validation and
// department/urgency categorisation.
package complaint

import (
	"fmt"
	"slices"
	"time"
)

// Column names of the unified ledger, in file order.
const (
	ColUsername     = "Username"
	ColPassword     = "Password"
	ColName         = "Name"
	ColMobile       = "Mobile Number"
	ColLocation     = "Location"
	ColType         = "Complaint Type"
	ColDescription  = "Complaint Description"
	ColTicketID     = "Ticket ID"
	ColStatus       = "Status"
	ColTicketAlive  = "Ticket Alive"
	ColTimestamp    = "Timestamp"
	ColDepartment   = "Assigned Department"
	ColUrgencyLevel = "Urgency Level"
)

// Header is the fixed column set written at the top of the ledger.
var Header = []string{
	ColUsername,
	ColPassword,
	ColName,
	ColMobile,
	ColLocation,
	ColType,
	ColDescription,
	ColTicketID,
	ColStatus,
	ColTicketAlive,
	ColTimestamp,
	ColDepartment,
	ColUrgencyLevel,
}

// Ticket status values.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// TimestampLayout formats the Timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one ledger row. Row always yields len(Header) values.
type Record struct {
	Username     string
	Password     string // PBKDF2 hash, never the plaintext
	Name         string
	Mobile       string
	Location     string
	Type         string
	Description  string
	TicketID     string
	Status       string
	TicketAlive  string
	Timestamp    string
	Department   string
	UrgencyLevel string
}

// NewRecord assembles a freshly opened ticket from a validated form.
func NewRecord(form Form, username, passwordHash, ticketID string, cat Category, now time.Time) Record {
	return Record{
		Username:     username,
		Password:     passwordHash,
		Name:         form.Name,
		Mobile:       form.Mobile,
		Location:     form.Location,
		Type:         form.Type,
		Description:  form.Description,
		TicketID:     ticketID,
		Status:       StatusOpen,
		TicketAlive:  AliveFor(StatusOpen),
		Timestamp:    now.Format(TimestampLayout),
		Department:   cat.Department,
		UrgencyLevel: cat.Urgency,
	}
}

// AliveFor mirrors a status into the Ticket Alive column.
func AliveFor(status string) string {
	if status == StatusClosed {
		return "No"
	}
	return "Yes"
}

// Row returns the values in Header order.
func (r Record) Row() []string {
	return []string{
		r.Username,
		r.Password,
		r.Name,
		r.Mobile,
		r.Location,
		r.Type,
		r.Description,
		r.TicketID,
		r.Status,
		r.TicketAlive,
		r.Timestamp,
		r.Department,
		r.UrgencyLevel,
	}
}

// IsOpen reports whether the ticket is still being worked on.
func (r Record) IsOpen() bool {
	return r.Status == StatusOpen
}

// RecordFromRow maps a row read with Header. Short rows leave trailing
// fields empty.
func RecordFromRow(row []string) Record {
	var r Record
	for i, name := range Header {
		if i >= len(row) {
			break
		}
		r.SetField(name, row[i])
	}
	return r
}

// Field returns the value of a column by name.
func (r Record) Field(name string) (string, error) {
	p := r.fieldPtr(name)
	if p == nil {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return *p, nil
}

// SetField sets a column by name. Unknown names are ignored and reported.
func (r *Record) SetField(name, value string) bool {
	p := r.fieldPtr(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (r *Record) fieldPtr(name string) *string {
	switch name {
	case ColUsername:
		return &r.Username
	case ColPassword:
		return &r.Password
	case ColName:
		return &r.Name
	case ColMobile:
		return &r.Mobile
	case ColLocation:
		return &r.Location
	case ColType:
		return &r.Type
	case ColDescription:
		return &r.Description
	case ColTicketID:
		return &r.TicketID
	case ColStatus:
		return &r.Status
	case ColTicketAlive:
		return &r.TicketAlive
	case ColTimestamp:
		return &r.Timestamp
	case ColDepartment:
		return &r.Department
	case ColUrgencyLevel:
		return &r.UrgencyLevel
	}
	return nil
}

// VisibleColumns is Header without the Password column, for display.
var VisibleColumns = slices.DeleteFunc(slices.Clone(Header), func(name string) bool {
	return name == ColPassword
})

// Redacted returns a copy with the password hash removed.
func (r Record) Redacted() Record {
	r.Password = ""
	return r
}

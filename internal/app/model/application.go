package model

import (
	"strings"
	"time"

	"github.com/anangai/civic-portal-backend/internal/catalog"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"  // awaiting admin review
	ApplicationStatusApproved ApplicationStatus = "approved" // exported to its category file
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ApplicationsCollection is the top-level array field of the applications file
const ApplicationsCollection = "applications"

// nullCert is what the submit form stores when no certification was given.
const nullCert = "null"

// Application is one "Get Featured" submission (applications.txt). It keeps
// every form field so an approved record can be rendered in either the food
// or the shop shape.
type Application struct {
	ID           string            `json:"id"`            // UUID
	Name         string            `json:"name"`          // applicant
	Email        string            `json:"email"`         // unique, matched case-insensitively
	Contact      string            `json:"contact"`       // phone or other contact
	CategoryFile string            `json:"category_file"` // featured category file stem
	BizName      string            `json:"biz_name"`      // display name
	BizCat       string            `json:"biz_cat"`       // display category
	BizDesc      string            `json:"biz_desc"`      // display description
	LicenseURL   string            `json:"license_url"`   // stored upload name, empty until set
	Status       ApplicationStatus `json:"status"`

	// Food shape
	BusinessName   string `json:"businessName"`
	Location       string `json:"location"`
	Hours          string `json:"hours"`
	LocalSourcing  string `json:"local_sourcing"`
	VegVegan       string `json:"veg_vegan"`
	GreenPlateCert string `json:"green_plate_cert"`
	Notes          string `json:"notes"`

	// Shop shape
	StoreName      string `json:"store_name"`
	HoursOperation string `json:"hours_operation"`
	Info           string `json:"info"`
	ShopCategory   string `json:"shop_category"`

	// Legacy form fields
	BusinessType        string `json:"businessType"`
	BusinessDescription string `json:"businessDescription"`
}

// ApplicationForm is the submitted payload before an id and status are assigned.
type ApplicationForm struct {
	Name         string `form:"name"`
	Email        string `form:"email"`
	Contact      string `form:"contact"`
	CategoryFile string `form:"category_file"`

	BusinessName   string `form:"businessName"`
	Location       string `form:"location"`
	Hours          string `form:"hours"`
	LocalSourcing  string `form:"localSourcing"`
	VegVegan       string `form:"vegVegan"`
	GreenPlateCert string `form:"greenPlateCert"`
	Notes          string `form:"notes"`

	StoreName      string `form:"storeName"`
	HoursOperation string `form:"hoursOperation"`
	Info           string `form:"info"`
	ShopCategory   string `form:"shopCategory"`

	BusinessType        string `form:"businessType"`
	BusinessDescription string `form:"businessDescription"`
}

// NewApplication builds a pending record from a trimmed form, deriving the
// display fields.
func NewApplication(id string, f ApplicationForm, licenseURL string) Application {
	t := strings.TrimSpace
	cat := t(f.CategoryFile)

	cert := t(f.GreenPlateCert)
	if cert == "" {
		cert = nullCert
	}

	return Application{
		ID:           id,
		Name:         t(f.Name),
		Email:        t(f.Email),
		Contact:      t(f.Contact),
		CategoryFile: cat,
		BizName:      firstNonEmpty(f.StoreName, f.BusinessName, f.BusinessType),
		BizCat:       catalog.Label(cat),
		BizDesc:      firstNonEmpty(f.BusinessDescription, f.Notes, f.Info),
		LicenseURL:   licenseURL,
		Status:       ApplicationStatusPending,

		BusinessName:   t(f.BusinessName),
		Location:       t(f.Location),
		Hours:          t(f.Hours),
		LocalSourcing:  t(f.LocalSourcing),
		VegVegan:       t(f.VegVegan),
		GreenPlateCert: cert,
		Notes:          t(f.Notes),

		StoreName:      t(f.StoreName),
		HoursOperation: t(f.HoursOperation),
		Info:           t(f.Info),
		ShopCategory:   t(f.ShopCategory),

		BusinessType:        t(f.BusinessType),
		BusinessDescription: t(f.BusinessDescription),
	}
}

// EntryName is the listing name written on approval.
func (a *Application) EntryName() string {
	return firstNonEmpty(a.StoreName, a.BizName, a.BusinessName)
}

// ToEntry renders the record in the shape of its category file.
func (a *Application) ToEntry() catalog.Entry {
	if catalog.FeaturedKind(a.CategoryFile) == catalog.KindShop {
		return &catalog.ShopEntry{
			Name:     a.EntryName(),
			Location: a.Location,
			Hours:    firstNonEmpty(a.HoursOperation, a.Hours),
			Info:     a.Info,
			Category: a.ShopCategory,
		}
	}

	cert := strings.TrimSpace(a.GreenPlateCert)
	if strings.EqualFold(cert, nullCert) {
		cert = ""
	}
	return &catalog.FoodEntry{
		Name:           a.EntryName(),
		Location:       a.Location,
		Hours:          firstNonEmpty(a.Hours, a.HoursOperation),
		LocalSourcing:  a.LocalSourcing,
		VegVegan:       a.VegVegan,
		GreenPlateCert: cert,
		Notes:          firstNonEmpty(a.Notes, a.Info),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ApplicationDecision is the response to an approve or reject.
type ApplicationDecision struct {
	ID     string            `json:"id"`
	Status ApplicationStatus `json:"status"`
}

// ApplicationEvent is pushed to the admin live feed when an application
// changes.
type ApplicationEvent struct {
	Type          string            `json:"type"` // submitted, approved or rejected
	ApplicationID string            `json:"application_id"`
	Email         string            `json:"email"`
	Category      string            `json:"category"`
	BizName       string            `json:"biz_name"`
	Status        ApplicationStatus `json:"status"`
	At            time.Time         `json:"at"`
}

func NewApplicationEvent(eventType string, a *Application, at time.Time) ApplicationEvent {
	return ApplicationEvent{
		Type:          eventType,
		ApplicationID: a.ID,
		Email:         a.Email,
		Category:      a.CategoryFile,
		BizName:       a.BizName,
		Status:        a.Status,
		At:            at.UTC(),
	}
}

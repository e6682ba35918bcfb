package model

// DashboardAuth is the auth half of the dashboard join
type DashboardAuth struct {
	Email      string     `json:"email"`
	Progress   int        `json:"progress"`
	IsVerified bool       `json:"is_verified"`
	Status     UserStatus `json:"status"`
}

// DashboardBusiness is the application half of the dashboard join
type DashboardBusiness struct {
	BizName    string            `json:"biz_name"`
	BizCat     string            `json:"biz_cat"`
	BizDesc    string            `json:"biz_desc"`
	LicenseURL string            `json:"license_url"`
	Status     ApplicationStatus `json:"status"`
}

// Dashboard merges a user and an application that share an email. Either
// side is default-filled when its record is absent.
type Dashboard struct {
	Auth     DashboardAuth     `json:"auth"`
	Business DashboardBusiness `json:"business"`
}

// BusinessCard is the public directory view of a verified user.
type BusinessCard struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Address        string `json:"address"`
	Sustainability string `json:"sustainability"`
	Live           bool   `json:"live"`
}

// UserProfile is a stored user without credentials, as returned by get-user
// and the admin pending list.
type UserProfile struct {
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	Progress            int        `json:"progress"`
	IsVerified          bool       `json:"is_verified"`
	Status              UserStatus `json:"status"`
	Role                UserRole   `json:"role,omitempty"`
	BusinessName        string     `json:"business_name,omitempty"`
	BusinessDescription string     `json:"business_description,omitempty"`
	Category            string     `json:"category,omitempty"`
	Address             string     `json:"address,omitempty"`
}

// Profile strips credentials and fills in the derived status.
func (u *User) Profile() UserProfile {
	return UserProfile{
		Email:               u.Email,
		Name:                u.Name,
		Progress:            u.CurrentProgress(),
		IsVerified:          u.IsVerified,
		Status:              u.DerivedStatus(),
		Role:                u.Role,
		BusinessName:        u.BusinessName,
		BusinessDescription: u.BusinessDescription,
		Category:            u.Category,
		Address:             u.Address,
	}
}

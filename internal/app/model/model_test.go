package model

import (
	"testing"

	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/pkg/util"
	"github.com/stretchr/testify/assert"
)

const testSalt = "test-salt"

func TestUser_Credential(t *testing.T) {
	bcryptHash, err := util.HashBcrypt("secret1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		user     User
		password string
		want     bool
	}{
		{"digest", User{HashedPassword: util.DigestPassword(testSalt, "secret1")}, "secret1", true},
		{"digest wrong password", User{HashedPassword: util.DigestPassword(testSalt, "secret1")}, "secret2", false},
		{"digest wins over plaintext", User{HashedPassword: util.DigestPassword(testSalt, "a"), Password: "b"}, "b", false},
		{"bcrypt", User{HashedPassword: bcryptHash}, "secret1", true},
		{"legacy plaintext", User{Password: "letmein"}, "letmein", true},
		{"clear text in hashed field", User{HashedPassword: "letmein"}, "letmein", true},
		{"clear text in hashed field wrong password", User{HashedPassword: "letmein"}, "letmeout", false},
		{"no credential", User{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Credential(testSalt).Verify(tt.password))
		})
	}
}

func TestUser_DerivedStatus(t *testing.T) {
	assert.Equal(t, UserStatusPendingReview, (&User{}).DerivedStatus())
	assert.Equal(t, UserStatusApproved, (&User{IsVerified: true}).DerivedStatus())
	assert.Equal(t, UserStatusRejected, (&User{IsVerified: true, Status: UserStatusRejected}).DerivedStatus())
}

func TestUser_CurrentProgress(t *testing.T) {
	assert.Equal(t, 1, (&User{}).CurrentProgress())
	assert.Equal(t, 4, (&User{Progress: 4}).CurrentProgress())
	assert.Equal(t, 7, (&User{Progress: 12}).CurrentProgress())
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "jane", DefaultName("jane@example.com"))
	assert.Equal(t, "plain", DefaultName("plain"))
}

func TestNewApplication_DerivedFields(t *testing.T) {
	tests := []struct {
		name     string
		form     ApplicationForm
		wantName string
		wantDesc string
		wantCat  string
	}{
		{
			name:     "Shop",
			form:     ApplicationForm{Email: " a@b.com ", CategoryFile: "shops", StoreName: "Joe's", Info: "Gifts"},
			wantName: "Joe's",
			wantDesc: "Gifts",
			wantCat:  "Shops",
		},
		{
			name:     "Food",
			form:     ApplicationForm{Email: "c@d.com", CategoryFile: "ice_cream_gelato", BusinessName: "Scoops", Notes: "Local milk"},
			wantName: "Scoops",
			wantDesc: "Local milk",
			wantCat:  "Ice Cream Gelato",
		},
		{
			name:     "Legacy fields",
			form:     ApplicationForm{Email: "e@f.com", CategoryFile: "bakeries", BusinessType: "Bakery", BusinessDescription: "Bread", Notes: "ignored"},
			wantName: "Bakery",
			wantDesc: "Bread",
			wantCat:  "Bakeries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApplication("id-1", tt.form, "")
			assert.Equal(t, "id-1", app.ID)
			assert.Equal(t, ApplicationStatusPending, app.Status)
			assert.Equal(t, tt.wantName, app.BizName)
			assert.Equal(t, tt.wantDesc, app.BizDesc)
			assert.Equal(t, tt.wantCat, app.BizCat)
			assert.Equal(t, "null", app.GreenPlateCert)
		})
	}

	app := NewApplication("id-2", ApplicationForm{Email: " a@b.com "}, "license.pdf")
	assert.Equal(t, "a@b.com", app.Email)
	assert.Equal(t, "license.pdf", app.LicenseURL)
}

func TestApplication_ToEntry(t *testing.T) {
	shop := NewApplication("1", ApplicationForm{
		Email:        "a@b.com",
		CategoryFile: "shops",
		StoreName:    "Joe's",
		Location:     "123 Main",
		Hours:        "9-5",
		ShopCategory: "Retail",
	}, "")
	assert.Equal(t, &catalog.ShopEntry{
		Name:     "Joe's",
		Location: "123 Main",
		Hours:    "9-5",
		Category: "Retail",
	}, shop.ToEntry())

	food := NewApplication("2", ApplicationForm{
		Email:          "c@d.com",
		CategoryFile:   "restaurants",
		BusinessName:   "Diner",
		HoursOperation: "8-8",
		Info:           "Breakfast",
	}, "")
	assert.Equal(t, &catalog.FoodEntry{
		Name:  "Diner",
		Hours: "8-8",
		Notes: "Breakfast",
	}, food.ToEntry())

	certified := NewApplication("3", ApplicationForm{CategoryFile: "bakeries", BusinessName: "B", GreenPlateCert: "Gold"}, "")
	assert.Equal(t, "Gold", certified.ToEntry().(*catalog.FoodEntry).GreenPlateCert)

	unnamed := Application{CategoryFile: "bakeries"}
	assert.Empty(t, unnamed.ToEntry().EntryName())
}

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_ParentLanguage(t *testing.T) {
	tests := []struct {
		name string
		usr  User
		want string
	}{
		{name: "no additional info", usr: User{Role: RoleStudent}, want: LanguageEnglish},
		{name: "empty language", usr: User{Role: RoleStudent, AdditionalInfo: &AdditionalInfo{}}, want: LanguageEnglish},
		{
			name: "unsupported language",
			usr:  User{Role: RoleStudent, AdditionalInfo: &AdditionalInfo{ParentLanguage: "klingon"}},
			want: LanguageEnglish,
		},
		{
			name: "supported language",
			usr:  User{Role: RoleStudent, AdditionalInfo: &AdditionalInfo{ParentLanguage: "hindi"}},
			want: LanguageHindi,
		},
		{
			name: "case insensitive",
			usr:  User{Role: RoleStudent, AdditionalInfo: &AdditionalInfo{ParentLanguage: " Marathi "}},
			want: LanguageMarathi,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.usr.ParentLanguage())
		})
	}
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "hi", LanguageCode(LanguageHindi))
	assert.Equal(t, "or", LanguageCode(LanguageOdia))
	assert.Equal(t, "en", LanguageCode(LanguageEnglish))
	assert.Equal(t, "en", LanguageCode("klingon"))
}

func TestUser_SameSchool(t *testing.T) {
	usr := User{SchoolID: "sch1"}
	assert.True(t, usr.SameSchool("sch1"))
	assert.False(t, usr.SameSchool("sch2"))

	// a user without a school never matches
	orphan := User{}
	assert.False(t, orphan.SameSchool(""))
}

func TestNewUser_additionalInfo(t *testing.T) {
	tests := []struct {
		name string
		nu   NewUser
		want *AdditionalInfo
	}{
		{name: "empty", nu: NewUser{Role: RoleStudent}, want: nil},
		{
			name: "top-level student fields fold in",
			nu:   NewUser{Role: RoleStudent, ParentLanguage: "tamil", ParentOccupation: "farmer"},
			want: &AdditionalInfo{ParentLanguage: "tamil", ParentOccupation: "farmer"},
		},
		{
			name: "top-level fields ignored for non-students",
			nu:   NewUser{Role: RoleTeacher, ParentLanguage: "tamil"},
			want: nil,
		},
		{
			name: "sub-record wins over top-level",
			nu: NewUser{
				Role:           RoleStudent,
				ParentLanguage: "tamil",
				AdditionalInfo: &AdditionalInfo{ParentLanguage: "telugu", Bio: "reads a lot"},
			},
			want: &AdditionalInfo{ParentLanguage: "telugu", Bio: "reads a lot"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.nu.additionalInfo())
		})
	}
}

func TestUser_password(t *testing.T) {
	var usr User
	assert.NoError(t, usr.SetPassword("s3cret"))
	assert.NoError(t, usr.CheckPassword("s3cret"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

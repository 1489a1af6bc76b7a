package model

import "gorm.io/datatypes"

type Domain string

const (
	DomainTechnology  Domain = "technology"
	DomainHealthcare  Domain = "healthcare"
	DomainFinance     Domain = "finance"
	DomainEducation   Domain = "education"
	DomainArts        Domain = "arts"
	DomainEngineering Domain = "engineering"
	DomainBusiness    Domain = "business"
	DomainScience     Domain = "science"
	DomainLaw         Domain = "law"
	DomainOther       Domain = "other"
)

type EducationLevel string

const (
	EducationHighSchool EducationLevel = "high_school"
	EducationAssociate  EducationLevel = "associate"
	EducationBachelor   EducationLevel = "bachelor"
	EducationMaster     EducationLevel = "master"
	EducationDoctorate  EducationLevel = "doctorate"
	EducationSelfTaught EducationLevel = "self_taught"
	EducationBootcamp   EducationLevel = "bootcamp"
	EducationOther      EducationLevel = "other"
)

// swagger:model UserProfile
type UserProfile struct {
	UUIDBase
	Email          string                      `gorm:"size:191;uniqueIndex;not null" json:"email"`
	FullName       *string                     `gorm:"size:100" json:"full_name"`
	AvatarURL      *string                     `gorm:"size:255" json:"avatar_url"`
	Domain         *Domain                     `gorm:"size:32" json:"domain"`
	EducationLevel *EducationLevel             `gorm:"size:32" json:"education_level"`
	Skills         datatypes.JSONSlice[string] `json:"skills"`
	Interests      datatypes.JSONSlice[string] `json:"interests"`
	TargetCareer   *string                     `gorm:"size:191" json:"target_career"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

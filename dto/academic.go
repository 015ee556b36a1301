package dto

type AcademicSettingsRequest struct {
	BookingsLocked *bool `json:"bookingsLocked" binding:"required"`
}

// ArchiveRequest selects the period to archive. An empty semester means the whole year.
type ArchiveRequest struct {
	AcademicYear string `json:"academicYear" binding:"required"`
	Semester     string `json:"semester" binding:"omitempty,oneof=1 2"`
}

type ArchiveListQuery struct {
	AcademicYear string `form:"academicYear" validate:"required"`
	Semester     string `form:"semester" validate:"omitempty,oneof=1 2"`
}

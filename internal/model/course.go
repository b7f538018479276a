package model

type CourseLevel string

const (
	Beginner     CourseLevel = "beginner"
	Intermediate CourseLevel = "intermediate"
	Advanced     CourseLevel = "advanced"
)

func (l CourseLevel) Valid() bool {
	switch l {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// swagger:model Course
type Course struct {
	BaseModel
	ModuleID        uint        `gorm:"index;not null" json:"module_id"`
	Title           string      `gorm:"size:255;not null" json:"title"`
	Description     string      `gorm:"type:text" json:"description"`
	Level           CourseLevel `gorm:"size:20;not null" json:"level"`
	DurationMinutes int         `gorm:"not null" json:"duration_minutes"`
	InstructorName  string      `gorm:"size:100;not null" json:"instructor_name"`
	VideoURL        string      `gorm:"size:255" json:"video_url,omitempty"`
	BadgeImage      string      `gorm:"size:255" json:"badge_image,omitempty"`
	OrderInModule   int         `gorm:"default:0" json:"order_in_module"`
	IsActive        bool        `gorm:"default:true" json:"is_active"`
}

func (Course) TableName() string {
	return "courses"
}

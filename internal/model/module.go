package model

// Module 音乐学科分类，静态参照数据
// swagger:model Module
type Module struct {
	BaseModel
	Name        string   `gorm:"size:50;uniqueIndex;not null" json:"name"`
	DisplayName string   `gorm:"size:100;not null" json:"display_name"`
	Description string   `gorm:"type:text" json:"description"`
	Icon        string   `gorm:"size:100" json:"icon"`
	Color       string   `gorm:"size:20" json:"color"`
	Courses     []Course `gorm:"foreignKey:ModuleID" json:"-"`
}

func (Module) TableName() string {
	return "modules"
}

// ModuleWithCount 模块列表项，course_count 为该模块下激活课程数
type ModuleWithCount struct {
	Module
	CourseCount int64 `json:"course_count"`
}

package types

// Gender 表单中的性别枚举
type Gender string

const (
	GenderMale      Gender = "男"
	GenderFemale    Gender = "女"
	GenderOther     Gender = "其他"
	GenderUndefined Gender = "不愿透露"
)

// Genders 全部合法性别取值
var Genders = []Gender{GenderMale, GenderFemale, GenderOther, GenderUndefined}

// ParseGender 仅接受精确匹配的枚举值
func ParseGender(s string) (Gender, bool) {
	for _, g := range Genders {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// SkillLevel 技能熟练度
type SkillLevel string

const (
	SkillLevelJunior   SkillLevel = "初级"
	SkillLevelMiddle   SkillLevel = "中级"
	SkillLevelSenior   SkillLevel = "高级"
	SkillLevelExpert   SkillLevel = "专家"
	SkillLevelFamiliar SkillLevel = "熟悉"
	SkillLevelMaster   SkillLevel = "精通"
)

// ResumeFormValues 可编辑的扁平表单
type ResumeFormValues struct {
	Name           string      `json:"name"`
	Gender         *Gender     `json:"gender,omitempty" validate:"omitempty,oneof=男 女 其他 不愿透露"`
	Phone          string      `json:"phone" validate:"notblank,resume_phone"`
	Email          string      `json:"email" validate:"notblank,resume_email"`
	City           string      `json:"city"`
	Origin         string      `json:"origin"`
	ExpectedSalary string      `json:"expectedSalary"`
	Hobbies        string      `json:"hobbies"`
	Skills         string      `json:"skills"`
	WorkSkillName  string      `json:"workSkillName"`
	WorkSkillLevel *SkillLevel `json:"workSkillLevel,omitempty" validate:"omitempty,oneof=初级 中级 高级 专家 熟悉 精通"`
	SoftSkills     string      `json:"softSkills"`
	SelfEvaluation string      `json:"selfEvaluation"`
	WorkSkills     []WorkSkill `json:"workSkills,omitempty" validate:"omitempty,dive"`

	WorkExperience    []WorkExperienceForm    `json:"workExperience"`
	ProjectExperience []ProjectExperienceForm `json:"projectExperience"`
	Education         []EducationForm         `json:"education"`
}

// WorkSkill 工作技能条目
type WorkSkill struct {
	Name  string      `json:"name"`
	Level *SkillLevel `json:"level,omitempty" validate:"omitempty,oneof=初级 中级 高级 专家 熟悉 精通"`
}

// WorkExperienceForm 工作经历表单条目，成就为换行拼接的字符串
type WorkExperienceForm struct {
	Organization   string `json:"organization"`
	Title          string `json:"title"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	City           string `json:"city"`
	EmploymentType string `json:"employmentType"`
	Achievements   string `json:"achievements"`
}

// ProjectExperienceForm 项目经历表单条目
type ProjectExperienceForm struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Achievements string `json:"achievements"`
}

// EducationForm 教育经历表单条目
type EducationForm struct {
	Institution  string `json:"institution"`
	Major        string `json:"major"`
	DegreeType   string `json:"degreeType"`
	DegreeStatus string `json:"degreeStatus"`
	City         string `json:"city"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Achievements string `json:"achievements"`
}

// Clone 深拷贝表单，避免调用方持有内部切片
func (v ResumeFormValues) Clone() ResumeFormValues {
	out := v
	if v.Gender != nil {
		g := *v.Gender
		out.Gender = &g
	}
	if v.WorkSkillLevel != nil {
		l := *v.WorkSkillLevel
		out.WorkSkillLevel = &l
	}
	if v.WorkSkills != nil {
		out.WorkSkills = make([]WorkSkill, len(v.WorkSkills))
		for i, s := range v.WorkSkills {
			out.WorkSkills[i] = s
			if s.Level != nil {
				l := *s.Level
				out.WorkSkills[i].Level = &l
			}
		}
	}
	out.WorkExperience = append([]WorkExperienceForm(nil), v.WorkExperience...)
	out.ProjectExperience = append([]ProjectExperienceForm(nil), v.ProjectExperience...)
	out.Education = append([]EducationForm(nil), v.Education...)
	if out.WorkExperience == nil {
		out.WorkExperience = []WorkExperienceForm{}
	}
	if out.ProjectExperience == nil {
		out.ProjectExperience = []ProjectExperienceForm{}
	}
	if out.Education == nil {
		out.Education = []EducationForm{}
	}
	return out
}

// Package profile 在结构化简历与可编辑表单之间做双向转换。
//
// 转换是有损的：ToStruct(ToForm(s)) 不一定等于 s，
// 但从第二次往返开始结果稳定，对未修改的表单重复派生得到相同的标签集合。
package profile

import (
	"strings"

	"resume-intake/internal/types"
)

// EmptyForm 没有任何输入时的默认表单
func EmptyForm(fallbackName *string) types.ResumeFormValues {
	return types.ResumeFormValues{
		Name:              types.Deref(fallbackName),
		WorkExperience:    []types.WorkExperienceForm{},
		ProjectExperience: []types.ProjectExperienceForm{},
		Education:         []types.EducationForm{},
	}
}

// ToForm 把结构化简历映射为表单。s 为 nil 时返回默认表单。
func ToForm(s *types.StructInfo, fallbackName *string) types.ResumeFormValues {
	if s == nil {
		return EmptyForm(fallbackName)
	}

	basic := s.BasicInfo
	if basic == nil {
		basic = &types.BasicInfo{}
	}
	exp := s.Experience
	if exp == nil {
		exp = &types.Experience{}
	}
	self := s.SelfAssessment
	if self == nil {
		self = &types.SelfAssessment{}
	}

	name := basic.Name
	if name == nil {
		name = fallbackName
	}

	softSkills := softSkillNames(self.SoftSkills)

	values := types.ResumeFormValues{
		Name:              types.Deref(name),
		Phone:             types.Deref(basic.Phone),
		City:              types.Deref(basic.City),
		Gender:            toGender(basic.Gender),
		Email:             types.Deref(basic.Email),
		Hobbies:           softSkills,
		Skills:            hardSkillNames(self.HardSkills),
		SoftSkills:        softSkills,
		SelfEvaluation:    types.Deref(self.Summary),
		WorkExperience:    make([]types.WorkExperienceForm, len(exp.WorkExperience)),
		ProjectExperience: make([]types.ProjectExperienceForm, len(exp.ProjectExperience)),
		Education:         make([]types.EducationForm, len(exp.Education)),
	}

	for i, w := range exp.WorkExperience {
		values.WorkExperience[i] = types.WorkExperienceForm{
			Organization:   types.Deref(w.Organization),
			Title:          types.Deref(w.Title),
			StartDate:      types.Deref(w.StartDate),
			EndDate:        types.Deref(w.EndDate),
			City:           types.Deref(w.City),
			EmploymentType: types.Deref(w.EmploymentType),
			Achievements:   joinAchievements(w.Achievements),
		}
	}
	for i, p := range exp.ProjectExperience {
		values.ProjectExperience[i] = types.ProjectExperienceForm{
			Organization: types.Deref(p.Organization),
			Role:         types.Deref(p.Role),
			StartDate:    types.Deref(p.StartDate),
			EndDate:      types.Deref(p.EndDate),
			Achievements: joinAchievements(p.Achievements),
		}
	}
	for i, e := range exp.Education {
		values.Education[i] = types.EducationForm{
			Institution:  types.Deref(e.Institution),
			Major:        types.Deref(e.Major),
			DegreeType:   types.Deref(e.DegreeType),
			DegreeStatus: types.Deref(e.DegreeStatus),
			City:         types.Deref(e.City),
			StartDate:    types.Deref(e.StartDate),
			EndDate:      types.Deref(e.EndDate),
			Achievements: joinAchievements(e.Achievements),
		}
	}

	return values
}

// ToStruct 从表单重新派生结构化简历
func ToStruct(f types.ResumeFormValues) types.StructInfo {
	skillTokens := splitTokens(f.Skills, isSkillDelimiter)
	hardSkills := make([]types.HardSkill, len(skillTokens))
	for i, tok := range skillTokens {
		hardSkills[i] = types.HardSkill{SkillName: types.Str(tok)}
	}

	tags := unionTokens(
		splitTokens(f.Hobbies, isTagDelimiter),
		splitTokens(f.SoftSkills, isTagDelimiter),
	)
	softSkills := make([]types.SoftSkill, len(tags))
	for i, tag := range tags {
		softSkills[i] = types.SoftSkill{Name: tag}
	}

	var gender *string
	if f.Gender != nil {
		gender = types.Str(string(*f.Gender))
	}

	exp := &types.Experience{
		WorkExperience:    make([]types.WorkRecord, len(f.WorkExperience)),
		ProjectExperience: make([]types.ProjectRecord, len(f.ProjectExperience)),
		Education:         make([]types.EducationRecord, len(f.Education)),
	}
	for i, w := range f.WorkExperience {
		exp.WorkExperience[i] = types.WorkRecord{
			Organization:   types.Str(w.Organization),
			Title:          types.Str(w.Title),
			StartDate:      types.Str(w.StartDate),
			EndDate:        types.Str(w.EndDate),
			City:           types.Str(w.City),
			EmploymentType: types.Str(w.EmploymentType),
			Achievements:   splitAchievements(w.Achievements),
		}
	}
	for i, p := range f.ProjectExperience {
		exp.ProjectExperience[i] = types.ProjectRecord{
			Organization: types.Str(p.Organization),
			Role:         types.Str(p.Role),
			StartDate:    types.Str(p.StartDate),
			EndDate:      types.Str(p.EndDate),
			Achievements: splitAchievements(p.Achievements),
		}
	}
	for i, e := range f.Education {
		exp.Education[i] = types.EducationRecord{
			Institution:  types.Str(e.Institution),
			Major:        types.Str(e.Major),
			DegreeType:   types.Str(e.DegreeType),
			DegreeStatus: types.Str(e.DegreeStatus),
			City:         types.Str(e.City),
			StartDate:    types.Str(e.StartDate),
			EndDate:      types.Str(e.EndDate),
			Achievements: splitAchievements(e.Achievements),
		}
	}

	return types.StructInfo{
		BasicInfo: &types.BasicInfo{
			Name:   types.Str(f.Name),
			Phone:  types.Str(f.Phone),
			City:   types.Str(f.City),
			Gender: gender,
			Email:  types.Str(f.Email),
		},
		Experience: exp,
		SelfAssessment: &types.SelfAssessment{
			Summary:    types.Str(f.SelfEvaluation),
			HardSkills: hardSkills,
			SoftSkills: softSkills,
		},
	}
}

// toGender 只接受精确匹配的枚举值，其余丢弃
func toGender(raw *string) *types.Gender {
	if raw == nil {
		return nil
	}
	g, ok := types.ParseGender(*raw)
	if !ok {
		return nil
	}
	return &g
}

func hardSkillNames(skills []types.HardSkill) string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = types.Deref(s.SkillName)
	}
	return joinNonEmpty(names, listJoiner)
}

func softSkillNames(skills []types.SoftSkill) string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return joinNonEmpty(names, listJoiner)
}

func joinAchievements(items []string) string {
	return strings.Join(items, achievementJoiner)
}

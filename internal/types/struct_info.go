package types

import (
	"bytes"
	"encoding/json"
)

// StructInfo 后端解析出的结构化简历。
// 所有标量字段均为指针：nil 表示缺失或 null，与空字符串区分。
type StructInfo struct {
	BasicInfo      *BasicInfo      `json:"basic_info,omitempty"`
	Experience     *Experience     `json:"experience,omitempty"`
	SelfAssessment *SelfAssessment `json:"self_assessment"`
}

// BasicInfo 基本信息
type BasicInfo struct {
	City   *string `json:"city"`
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Gender *string `json:"gender"`
}

// Experience 经历
type Experience struct {
	Education         []EducationRecord `json:"education"`
	WorkExperience    []WorkRecord      `json:"work_experience"`
	ProjectExperience []ProjectRecord   `json:"project_experience"`
}

// EducationRecord 教育经历
type EducationRecord struct {
	City         *string  `json:"city"`
	Major        *string  `json:"major"`
	EndDate      *string  `json:"end_date"`
	StartDate    *string  `json:"start_date"`
	DegreeType   *string  `json:"degree_type"`
	Institution  *string  `json:"institution"`
	Achievements []string `json:"achievements"`
	DegreeStatus *string  `json:"degree_status"`
}

// WorkRecord 工作经历
type WorkRecord struct {
	City           *string  `json:"city"`
	Title          *string  `json:"title"`
	EndDate        *string  `json:"end_date"`
	StartDate      *string  `json:"start_date"`
	Achievements   []string `json:"achievements"`
	Organization   *string  `json:"organization"`
	EmploymentType *string  `json:"employment_type"`
}

// ProjectRecord 项目经历
type ProjectRecord struct {
	Role         *string  `json:"role"`
	EndDate      *string  `json:"end_date"`
	StartDate    *string  `json:"start_date"`
	Achievements []string `json:"achievements"`
	Organization *string  `json:"organization"`
}

// SelfAssessment 自我评价与技能
type SelfAssessment struct {
	Summary    *string     `json:"summary"`
	HardSkills []HardSkill `json:"hard_skills"`
	SoftSkills []SoftSkill `json:"soft_skills"`
	Hobbies    []string    `json:"hobbies,omitempty"`
	Skills     []string    `json:"skills,omitempty"`
}

// HardSkill 专业技能
type HardSkill struct {
	SkillName   *string `json:"skill_name"`
	Proficiency *string `json:"proficiency"`
}

// SoftSkill 软技能。后端可能给出纯字符串，也可能给出 {skill_name} 对象。
type SoftSkill struct {
	Name   string
	Record bool // 原始数据是否为对象形式
}

// UnmarshalJSON 兼容字符串、对象以及其他任意形态，无法识别时名称为空
func (s *SoftSkill) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = SoftSkill{}
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		s.Name = name
	case '{':
		s.Record = true
		var record struct {
			SkillName *string `json:"skill_name"`
		}
		if err := json.Unmarshal(trimmed, &record); err == nil && record.SkillName != nil {
			s.Name = *record.SkillName
		}
	}
	return nil
}

// MarshalJSON 按原始形态输出
func (s SoftSkill) MarshalJSON() ([]byte, error) {
	if s.Record {
		return json.Marshal(struct {
			SkillName string `json:"skill_name"`
		}{SkillName: s.Name})
	}
	return json.Marshal(s.Name)
}

// Str 返回字符串指针
func Str(s string) *string {
	return &s
}

// Deref 解引用字符串指针，nil 时返回空字符串
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// DecodeStructInfo 宽松解析结构化简历，null 或非对象时返回 nil。
// 单个字段类型不符只影响该字段，不会丢掉整份简历。
func DecodeStructInfo(raw json.RawMessage) *StructInfo {
	if !isJSONObject(raw) {
		return nil
	}
	var info StructInfo
	_ = info.UnmarshalJSON(raw)
	return &info
}

// UnmarshalJSON 各部分分别解析，非对象的部分为 nil
func (s *StructInfo) UnmarshalJSON(data []byte) error {
	*s = StructInfo{}
	f := jsonFields(data)
	if isJSONObject(f["basic_info"]) {
		s.BasicInfo = &BasicInfo{}
		_ = s.BasicInfo.UnmarshalJSON(f["basic_info"])
	}
	if isJSONObject(f["experience"]) {
		s.Experience = &Experience{}
		_ = s.Experience.UnmarshalJSON(f["experience"])
	}
	if isJSONObject(f["self_assessment"]) {
		s.SelfAssessment = &SelfAssessment{}
		_ = s.SelfAssessment.UnmarshalJSON(f["self_assessment"])
	}
	return nil
}

func (b *BasicInfo) UnmarshalJSON(data []byte) error {
	f := jsonFields(data)
	*b = BasicInfo{
		City:   optString(f["city"]),
		Name:   optString(f["name"]),
		Email:  optString(f["email"]),
		Phone:  optString(f["phone"]),
		Gender: optString(f["gender"]),
	}
	return nil
}

func (e *Experience) UnmarshalJSON(data []byte) error {
	f := jsonFields(data)
	*e = Experience{
		Education:         decodeList[EducationRecord](f["education"], isJSONObject),
		WorkExperience:    decodeList[WorkRecord](f["work_experience"], isJSONObject),
		ProjectExperience: decodeList[ProjectRecord](f["project_experience"], isJSONObject),
	}
	return nil
}

func (r *EducationRecord) UnmarshalJSON(data []byte) error {
	f := jsonFields(data)
	*r = EducationRecord{
		City:         optString(f["city"]),
		Major:        optString(f["major"]),
		EndDate:      optString(f["end_date"]),
		StartDate:    optString(f["start_date"]),
		DegreeType:   optString(f["degree_type"]),
		Institution:  optString(f["institution"]),
		Achievements: stringList(f["achievements"]),
		DegreeStatus: optString(f["degree_status"]),
	}
	return nil
}

func (r *WorkRecord) UnmarshalJSON(data []byte) error {
	f := jsonFields(data)
	*r = WorkRecord{
		City:           optString(f["city"]),
		Title:          optString(f["title"]),
		EndDate:        optString(f["end_date"]),
		StartDate:      optString(f["start_date"]),
		Achievements:   stringList(f["achievements"]),
		Organization:   optString(f["organization"]),
		EmploymentType: optString(f["employment_type"]),
	}
	return nil
}

func (r *ProjectRecord) UnmarshalJSON(data []byte) error {
	f := jsonFields(data)
	*r = ProjectRecord{
		Role:         optString(f["role"]),
		EndDate:      optString(f["end_date"]),
		StartDate:    optString(f["start_date"]),
		Achievements: stringList(f["achievements"]),
		Organization: optString(f["organization"]),
	}
	return nil
}

func (a *SelfAssessment) UnmarshalJSON(data []byte) error {
	f := jsonFields(data)
	*a = SelfAssessment{
		Summary:    optString(f["summary"]),
		HardSkills: decodeList[HardSkill](f["hard_skills"], isSkillElement),
		SoftSkills: decodeList[SoftSkill](f["soft_skills"], func(json.RawMessage) bool { return true }),
		Hobbies:    stringList(f["hobbies"]),
		Skills:     stringList(f["skills"]),
	}
	return nil
}

// UnmarshalJSON 纯字符串视为技能名
func (h *HardSkill) UnmarshalJSON(data []byte) error {
	*h = HardSkill{}
	if isJSONObject(data) {
		f := jsonFields(data)
		h.SkillName = optString(f["skill_name"])
		h.Proficiency = optString(f["proficiency"])
		return nil
	}
	h.SkillName = optString(data)
	return nil
}

func isSkillElement(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '"')
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// jsonFields 非对象输入返回 nil map，读取任何键都得到缺失
func jsonFields(raw json.RawMessage) map[string]json.RawMessage {
	if !isJSONObject(raw) {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

// optString 字符串、数字和布尔转为文本，缺失、null、对象和数组为 nil
func optString(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		return &s
	}
	return Str(string(trimmed))
}

// stringList 非数组为 nil，数组中无法转为文本的元素被跳过
func stringList(raw json.RawMessage) []string {
	var elems []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &elems); err != nil || elems == nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s := optString(e); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// decodeList 逐个元素解析，keep 返回 false 的元素被跳过
func decodeList[T any, PT interface {
	*T
	json.Unmarshaler
}](raw json.RawMessage, keep func(json.RawMessage) bool) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &elems); err != nil || elems == nil {
		return nil
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		if !keep(e) {
			continue
		}
		var v T
		if err := PT(&v).UnmarshalJSON(e); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

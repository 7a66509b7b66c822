package profile

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-intake/internal/types"
)

func decodeStruct(t *testing.T, raw string) *types.StructInfo {
	t.Helper()
	var s types.StructInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return &s
}

const sampleStruct = `{
	"basic_info": {"name": "张三", "phone": "13800138000", "email": "zs@example.com", "city": "上海", "gender": "男"},
	"experience": {
		"work_experience": [
			{"organization": "某科技", "title": "后端工程师", "start_date": "2020-01", "end_date": "2023-06", "city": "上海", "employment_type": "全职", "achievements": ["负责支付系统", "性能提升30%"]},
			{"organization": "某银行", "title": null, "achievements": null}
		],
		"project_experience": [
			{"organization": "开源社区", "role": "维护者", "start_date": "2021", "end_date": "至今", "achievements": ["发布v2版本"]}
		],
		"education": [
			{"institution": "复旦大学", "major": "计算机", "degree_type": "本科", "degree_status": "毕业", "city": "上海", "start_date": "2012", "end_date": "2016", "achievements": []}
		]
	},
	"self_assessment": {
		"summary": "踏实肯干",
		"hard_skills": [{"skill_name": "Go", "proficiency": "精通"}, {"skill_name": ""}, {"skill_name": null}, {"skill_name": "MySQL"}],
		"soft_skills": ["沟通", {"skill_name": "团队合作"}, 42, {"skill_name": null}]
	}
}`

func TestToFormMapsAllSections(t *testing.T) {
	form := ToForm(decodeStruct(t, sampleStruct), nil)

	assert.Equal(t, "张三", form.Name)
	assert.Equal(t, "13800138000", form.Phone)
	assert.Equal(t, "zs@example.com", form.Email)
	assert.Equal(t, "上海", form.City)
	require.NotNil(t, form.Gender)
	assert.Equal(t, types.GenderMale, *form.Gender)
	assert.Equal(t, "", form.Origin)
	assert.Equal(t, "", form.ExpectedSalary)
	assert.Equal(t, "", form.WorkSkillName)
	assert.Nil(t, form.WorkSkillLevel)
	assert.Equal(t, "踏实肯干", form.SelfEvaluation)

	assert.Equal(t, "Go、MySQL", form.Skills, "空技能名应被过滤")
	assert.Equal(t, "沟通、团队合作", form.Hobbies)
	assert.Equal(t, form.Hobbies, form.SoftSkills, "兴趣与软技能来自同一来源")

	require.Len(t, form.WorkExperience, 2)
	assert.Equal(t, types.WorkExperienceForm{
		Organization: "某科技", Title: "后端工程师", StartDate: "2020-01", EndDate: "2023-06",
		City: "上海", EmploymentType: "全职", Achievements: "负责支付系统\n性能提升30%",
	}, form.WorkExperience[0])
	assert.Equal(t, types.WorkExperienceForm{Organization: "某银行"}, form.WorkExperience[1], "缺失字段默认为空字符串")

	require.Len(t, form.ProjectExperience, 1)
	assert.Equal(t, "维护者", form.ProjectExperience[0].Role)
	assert.Equal(t, "发布v2版本", form.ProjectExperience[0].Achievements)

	require.Len(t, form.Education, 1)
	assert.Equal(t, "复旦大学", form.Education[0].Institution)
	assert.Equal(t, "本科", form.Education[0].DegreeType)
	assert.Equal(t, "", form.Education[0].Achievements)
}

func TestToFormGender(t *testing.T) {
	for _, g := range []string{"男", "女", "其他", "不愿透露"} {
		form := ToForm(&types.StructInfo{BasicInfo: &types.BasicInfo{Gender: types.Str(g)}}, nil)
		require.NotNil(t, form.Gender, g)
		assert.Equal(t, types.Gender(g), *form.Gender)
	}
	for _, g := range []string{"male", "男 ", "", "Female"} {
		form := ToForm(&types.StructInfo{BasicInfo: &types.BasicInfo{Gender: types.Str(g)}}, nil)
		assert.Nil(t, form.Gender, "未知性别 %q 应被丢弃", g)
	}
}

func TestToFormFallbackName(t *testing.T) {
	fallback := types.Str("候选人A")

	form := ToForm(&types.StructInfo{}, fallback)
	assert.Equal(t, "候选人A", form.Name, "结构化姓名缺失时使用备用名")

	form = ToForm(&types.StructInfo{BasicInfo: &types.BasicInfo{Name: types.Str("")}}, fallback)
	assert.Equal(t, "", form.Name, "空字符串不是缺失")

	form = ToForm(&types.StructInfo{BasicInfo: &types.BasicInfo{Name: types.Str("李四")}}, fallback)
	assert.Equal(t, "李四", form.Name)

	form = ToForm(nil, fallback)
	assert.Equal(t, "候选人A", form.Name)
	assert.Empty(t, form.WorkExperience)
	assert.NotNil(t, form.WorkExperience)
}

func TestToFormNullSelfAssessment(t *testing.T) {
	form := ToForm(decodeStruct(t, `{"basic_info":{"name":"王五"},"self_assessment":null}`), nil)
	assert.Equal(t, "", form.Skills)
	assert.Equal(t, "", form.Hobbies)
	assert.Equal(t, "", form.SelfEvaluation)
}

// 软技能为 ["沟通", "团队合作"] 且没有 hobbies 时，两个表单字段都为 "沟通、团队合作"
func TestToFormSoftSkillsScenario(t *testing.T) {
	form := ToForm(decodeStruct(t, `{"self_assessment":{"soft_skills":["沟通","团队合作"]}}`), nil)
	assert.Equal(t, "沟通、团队合作", form.Hobbies)
	assert.Equal(t, "沟通、团队合作", form.SoftSkills)
}

func TestToStructTokenizesSkills(t *testing.T) {
	s := ToStruct(types.ResumeFormValues{
		Skills:     "Go, Python，Java、Rust\n Kubernetes ,, ",
		Hobbies:    "跑步 游泳、阅读",
		SoftSkills: "阅读，沟通\n\t团队合作 跑步",
	})

	require.NotNil(t, s.SelfAssessment)
	var skills []string
	for _, hs := range s.SelfAssessment.HardSkills {
		skills = append(skills, types.Deref(hs.SkillName))
		assert.Nil(t, hs.Proficiency, "熟练度应为 null")
	}
	assert.Equal(t, []string{"Go", "Python", "Java", "Rust", "Kubernetes"}, skills)

	var tags []string
	for _, ss := range s.SelfAssessment.SoftSkills {
		tags = append(tags, ss.Name)
	}
	assert.Equal(t, []string{"跑步", "游泳", "阅读", "沟通", "团队合作"}, tags, "按首次出现顺序合并去重")
}

func TestToStructSkillsKeepInnerSpaces(t *testing.T) {
	s := ToStruct(types.ResumeFormValues{Skills: "Spring Boot、Machine Learning"})
	require.Len(t, s.SelfAssessment.HardSkills, 2)
	assert.Equal(t, "Spring Boot", types.Deref(s.SelfAssessment.HardSkills[0].SkillName), "技能不按空格切分")
}

// 成就文本 "做了A\n\n做了B\n" 得到 ["做了A", "做了B"]
func TestToStructAchievements(t *testing.T) {
	s := ToStruct(types.ResumeFormValues{
		WorkExperience:    []types.WorkExperienceForm{{Achievements: "做了A\n\n做了B\n"}},
		ProjectExperience: []types.ProjectExperienceForm{{Achievements: "  \n \n\t\n"}},
		Education:         []types.EducationForm{{}},
	})
	assert.Equal(t, []string{"做了A", "做了B"}, s.Experience.WorkExperience[0].Achievements)
	assert.Equal(t, []string{}, s.Experience.ProjectExperience[0].Achievements, "只有空行时得到空列表")
	assert.NotNil(t, s.Experience.Education[0].Achievements, "空输入也要保留空列表")
	assert.Empty(t, s.Experience.Education[0].Achievements)

	raw, err := json.Marshal(s.Experience.Education[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"achievements":[]`)
}

func TestToStructBasicInfoAndGender(t *testing.T) {
	s := ToStruct(types.ResumeFormValues{Name: "张三", Email: "a@b.cn"})
	require.NotNil(t, s.BasicInfo)
	assert.Equal(t, "张三", types.Deref(s.BasicInfo.Name))
	require.NotNil(t, s.BasicInfo.Phone, "空字段输出为空字符串而不是 null")
	assert.Equal(t, "", *s.BasicInfo.Phone)
	assert.Nil(t, s.BasicInfo.Gender, "未选择性别时为 null")

	female := types.GenderFemale
	s = ToStruct(types.ResumeFormValues{Gender: &female})
	assert.Equal(t, "女", types.Deref(s.BasicInfo.Gender))

	raw, err := json.Marshal(ToStruct(types.ResumeFormValues{}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"gender":null`)
	assert.Contains(t, string(raw), `"soft_skills":[]`)
}

func TestToStructMapsRecordsIndexForIndex(t *testing.T) {
	f := types.ResumeFormValues{
		WorkExperience: []types.WorkExperienceForm{
			{Organization: "A", Title: "T1", StartDate: "2019", EndDate: "2020", City: "北京", EmploymentType: "实习"},
			{Organization: "B"},
		},
		Education: []types.EducationForm{{Institution: "清华", Major: "数学", DegreeType: "硕士", DegreeStatus: "在读"}},
	}
	s := ToStruct(f)
	require.Len(t, s.Experience.WorkExperience, 2)
	w := s.Experience.WorkExperience[0]
	assert.Equal(t, "A", types.Deref(w.Organization))
	assert.Equal(t, "实习", types.Deref(w.EmploymentType))
	assert.Equal(t, "B", types.Deref(s.Experience.WorkExperience[1].Organization))
	require.NotNil(t, s.Experience.WorkExperience[1].Title)
	assert.Equal(t, "", *s.Experience.WorkExperience[1].Title)
	assert.Equal(t, "在读", types.Deref(s.Experience.Education[0].DegreeStatus))
	assert.Empty(t, s.Experience.ProjectExperience)
}

// 第二次往返开始结构化结果稳定
func TestRoundTripFixpointFromSecondApplication(t *testing.T) {
	messy := decodeStruct(t, `{
		"basic_info": {"name": null, "gender": "unknown"},
		"experience": {"work_experience": [{"achievements": ["  A  ", "", "B"]}]},
		"self_assessment": {"hard_skills": [{"skill_name": "Go，Rust"}], "soft_skills": ["团队 合作", "沟通", "沟通"]}
	}`)

	struct1 := ToStruct(ToForm(messy, nil))
	struct2 := ToStruct(ToForm(&struct1, nil))
	assert.Equal(t, struct1, struct2)

	form1 := ToForm(&struct1, nil)
	form2 := ToForm(&struct2, nil)
	assert.Equal(t, form1, form2)
}

// 对干净的结构化数据，toForm -> toStruct -> toForm 与第一次 toForm 相同
func TestRoundTripFormIdempotenceOnGeneratedProfiles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s := randomProfile(rng)
		form1 := ToForm(s, nil)
		form2 := ToForm(ptr(ToStruct(form1)), nil)
		require.Equal(t, form1, form2, "第 %d 个样本往返后表单发生变化", i)
	}
}

func TestSampleProfileRoundTrip(t *testing.T) {
	form1 := ToForm(decodeStruct(t, sampleStruct), nil)
	form2 := ToForm(ptr(ToStruct(form1)), nil)
	assert.Equal(t, form1, form2)
}

func ptr[T any](v T) *T { return &v }

var tokenPool = []string{"沟通", "团队合作", "Go", "Rust", "阅读", "跑步", "领导力", "Kubernetes", "MySQL", "写作"}

func randomProfile(rng *rand.Rand) *types.StructInfo {
	pick := func() string { return tokenPool[rng.Intn(len(tokenPool))] }
	maybe := func(s string) *string {
		if rng.Intn(4) == 0 {
			return nil
		}
		return types.Str(s)
	}
	lines := func() []string {
		n := rng.Intn(3)
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("成果%d-%s", i, pick())
		}
		return out
	}
	unique := func(n int) []string {
		perm := rng.Perm(len(tokenPool))
		out := make([]string, 0, n)
		for _, idx := range perm[:n] {
			out = append(out, tokenPool[idx])
		}
		return out
	}

	s := &types.StructInfo{
		BasicInfo: &types.BasicInfo{
			Name:   types.Str(fmt.Sprintf("候选人%d", rng.Intn(1000))),
			Phone:  maybe("13800138000"),
			Email:  maybe("a@b.cn"),
			City:   maybe("杭州"),
			Gender: maybe(string(types.Genders[rng.Intn(len(types.Genders))])),
		},
		Experience:     &types.Experience{},
		SelfAssessment: &types.SelfAssessment{Summary: maybe("总结")},
	}
	for i := rng.Intn(3); i > 0; i-- {
		s.Experience.WorkExperience = append(s.Experience.WorkExperience, types.WorkRecord{
			Organization: maybe(pick()), Title: maybe("工程师"), StartDate: maybe("2020"), Achievements: lines(),
		})
	}
	for i := rng.Intn(3); i > 0; i-- {
		s.Experience.ProjectExperience = append(s.Experience.ProjectExperience, types.ProjectRecord{
			Role: maybe("负责人"), Achievements: lines(),
		})
	}
	for i := rng.Intn(2); i > 0; i-- {
		s.Experience.Education = append(s.Experience.Education, types.EducationRecord{
			Institution: maybe("某大学"), Achievements: lines(),
		})
	}
	for _, name := range unique(rng.Intn(4)) {
		s.SelfAssessment.HardSkills = append(s.SelfAssessment.HardSkills, types.HardSkill{SkillName: types.Str(name)})
	}
	for _, name := range unique(rng.Intn(4)) {
		s.SelfAssessment.SoftSkills = append(s.SelfAssessment.SoftSkills, types.SoftSkill{Name: name, Record: rng.Intn(2) == 0})
	}
	return s
}

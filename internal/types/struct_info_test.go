package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStructInfo_NonObject(t *testing.T) {
	assert.Nil(t, DecodeStructInfo(nil))
	assert.Nil(t, DecodeStructInfo(json.RawMessage(`null`)))
	assert.Nil(t, DecodeStructInfo(json.RawMessage(`"text"`)))
	assert.Nil(t, DecodeStructInfo(json.RawMessage(`[1,2]`)))
}

func TestDecodeStructInfo_FieldLevelDegrade(t *testing.T) {
	info := DecodeStructInfo(json.RawMessage(`{
		"basic_info":{"name":123,"city":null,"gender":true},
		"experience":"oops",
		"self_assessment":{
			"summary":["x"],
			"hard_skills":"Go",
			"soft_skills":["沟通",{"skill_name":"团队合作"},5],
			"hobbies":["跑步",null,{}]
		}
	}`))
	require.NotNil(t, info)

	require.NotNil(t, info.BasicInfo)
	assert.Equal(t, "123", Deref(info.BasicInfo.Name))
	assert.Nil(t, info.BasicInfo.City)
	assert.Equal(t, "true", Deref(info.BasicInfo.Gender))

	assert.Nil(t, info.Experience, "非对象的部分为 nil")

	sa := info.SelfAssessment
	require.NotNil(t, sa)
	assert.Nil(t, sa.Summary)
	assert.Nil(t, sa.HardSkills, "非数组的技能列表为 nil")
	require.Len(t, sa.SoftSkills, 3)
	assert.Equal(t, "沟通", sa.SoftSkills[0].Name)
	assert.Equal(t, "团队合作", sa.SoftSkills[1].Name)
	assert.True(t, sa.SoftSkills[1].Record)
	assert.Equal(t, "", sa.SoftSkills[2].Name)
	assert.Equal(t, []string{"跑步"}, sa.Hobbies)
}

func TestDecodeStructInfo_KeepsEmptyVersusMissing(t *testing.T) {
	info := DecodeStructInfo(json.RawMessage(`{"experience":{"education":[],"work_experience":null}}`))
	require.NotNil(t, info)
	require.NotNil(t, info.Experience)
	assert.NotNil(t, info.Experience.Education, "空数组保持为空切片")
	assert.Empty(t, info.Experience.Education)
	assert.Nil(t, info.Experience.WorkExperience)
	assert.Nil(t, info.Experience.ProjectExperience)
}

func TestStructInfo_UnmarshalThroughEncodingJSON(t *testing.T) {
	var wrapper struct {
		Info *StructInfo `json:"struct_info"`
	}
	err := json.Unmarshal([]byte(`{"struct_info":{"basic_info":{"phone":13800138000}}}`), &wrapper)
	require.NoError(t, err, "嵌套字段类型错误不应导致解析失败")
	require.NotNil(t, wrapper.Info)
	assert.Equal(t, "13800138000", Deref(wrapper.Info.BasicInfo.Phone))
}

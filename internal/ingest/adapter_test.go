package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-intake/internal/types"
)

func decode(t *testing.T, raw string) []types.BackendItem {
	t.Helper()
	return types.DecodeBackendItems(json.RawMessage(raw))
}

// TestNormalizeMixedStatuses 两个文件一成功一失败，结果按顺序返回
func TestNormalizeMixedStatuses(t *testing.T) {
	items := decode(t, `[
		{"file_name":"张三.pdf","file_size":2048,"source":1,"status":20,"struct_info":{"basic_info":{"name":"张三"}},"is_in_pool":true,"is_del":false,"id":11,"user_id":7},
		{"file_name":"李四.docx","file_size":1024,"source":1,"status":30,"status_msg":"解析失败：文件损坏","struct_info":null,"is_in_pool":false,"is_del":false,"id":12,"user_id":7}
	]`)

	results := Normalize(items)
	require.Len(t, results, 2)

	first := results[0]
	assert.True(t, first.Success)
	assert.Equal(t, types.StatusSuccess, first.Status)
	assert.Equal(t, "张三.pdf", first.FileName)
	require.NotNil(t, first.Data)
	assert.Equal(t, types.FileMeta{FileName: "张三.pdf", OriginalName: "张三.pdf", URL: "", Size: 2048, Ext: "pdf"}, *first.Data)
	require.NotNil(t, first.Backend.StructInfo)
	assert.Equal(t, "张三", types.Deref(first.Backend.StructInfo.BasicInfo.Name))
	assert.True(t, first.Backend.IsInPool)
	assert.Equal(t, int64(11), first.Backend.ID)
	assert.Equal(t, int64(7), first.Backend.UserID)

	second := results[1]
	assert.False(t, second.Success)
	assert.Equal(t, types.StatusFailed, second.Status)
	assert.Equal(t, "解析失败：文件损坏", second.Error)
	assert.Equal(t, "docx", second.Data.Ext)
	assert.Nil(t, second.Backend.StructInfo)

	assert.Equal(t, []int64{11, 12}, IDs(results))
}

// TestNormalizeCoercesLooseFields 数字字符串、0/1 布尔都能被识别
func TestNormalizeCoercesLooseFields(t *testing.T) {
	items := decode(t, `[{"file_name":"a.pdf","file_size":"512","source":"2","status":"20","is_in_pool":1,"is_del":"0","id":"42","user_id":"9"}]`)
	results := Normalize(items)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Success, "字符串形式的成功状态码也应识别为成功")
	assert.Equal(t, int64(512), r.Data.Size)
	assert.Equal(t, int64(2), r.Backend.Source)
	assert.True(t, r.Backend.IsInPool)
	assert.False(t, r.Backend.IsDel)
	assert.Equal(t, int64(42), r.Backend.ID)
	assert.Equal(t, int64(9), r.Backend.UserID)
}

// TestNormalizeDegradesMalformedFields 单个字段格式错误不影响整批
func TestNormalizeDegradesMalformedFields(t *testing.T) {
	items := decode(t, `[
		{"file_name":"","file_size":"abc","status":"oops","struct_info":"not-an-object","id":null},
		"garbage",
		{"file_name":"noext","file_size":-5,"status":20,"struct_info":{"basic_info":{"name":123}},"id":3}
	]`)
	results := Normalize(items)
	require.Len(t, results, 3, "畸形记录也要产出结果")

	assert.Equal(t, "文件", results[0].FileName, "缺失文件名时使用占位名")
	assert.Equal(t, "", results[0].Data.Ext)
	assert.Equal(t, int64(0), results[0].Data.Size)
	assert.False(t, results[0].Success)
	assert.Nil(t, results[0].Backend.StructInfo)

	assert.Equal(t, "文件", results[1].FileName)
	assert.Equal(t, types.StatusPending, results[1].Status)

	assert.Equal(t, "", results[2].Data.Ext, "没有点的文件名扩展名为空")
	assert.Equal(t, int64(0), results[2].Data.Size, "负数大小按0处理")
	assert.True(t, results[2].Success)
	require.NotNil(t, results[2].Backend.StructInfo, "单个字段类型不符不影响整份结构化数据")
	assert.Equal(t, "123", types.Deref(results[2].Backend.StructInfo.BasicInfo.Name), "数字姓名转为文本")
}

// TestNormalizeKeepsProfileWithBadField 字段类型错误只丢失该字段
func TestNormalizeKeepsProfileWithBadField(t *testing.T) {
	items := decode(t, `[{"file_name":"张三.pdf","status":20,"id":1,"struct_info":{
		"basic_info":{"name":"张三","phone":13800138000,"email":{"bad":true}},
		"experience":{"work_experience":[{"organization":"ACME","achievements":["上线",3]}, "garbage"]},
		"self_assessment":{"hard_skills":["Go",{"skill_name":"Redis"},7]}
	}}]`)
	results := Normalize(items)
	require.Len(t, results, 1)

	info := results[0].Backend.StructInfo
	require.NotNil(t, info)
	require.NotNil(t, info.BasicInfo)
	assert.Equal(t, "张三", types.Deref(info.BasicInfo.Name))
	assert.Equal(t, "13800138000", types.Deref(info.BasicInfo.Phone), "数字电话转为文本")
	assert.Nil(t, info.BasicInfo.Email, "对象形式的邮箱丢弃")

	require.NotNil(t, info.Experience)
	require.Len(t, info.Experience.WorkExperience, 1, "非对象的经历条目被跳过")
	assert.Equal(t, "ACME", types.Deref(info.Experience.WorkExperience[0].Organization))
	assert.Equal(t, []string{"上线", "3"}, info.Experience.WorkExperience[0].Achievements)

	require.NotNil(t, info.SelfAssessment)
	require.Len(t, info.SelfAssessment.HardSkills, 2)
	assert.Equal(t, "Go", types.Deref(info.SelfAssessment.HardSkills[0].SkillName))
	assert.Equal(t, "Redis", types.Deref(info.SelfAssessment.HardSkills[1].SkillName))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.NotNil(t, Normalize(nil))
	assert.Empty(t, decode(t, `{"not":"array"}`))
}

func TestExtensionUsesLastDotSegment(t *testing.T) {
	assert.Equal(t, "PDF", extension("a.b.PDF"))
	assert.Equal(t, "", extension("trailing."))
	assert.Equal(t, "", extension("none"))
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-intake/internal/constants"
	"resume-intake/internal/events"
	"resume-intake/internal/storage/models"
	"resume-intake/internal/types"
)

func openTestDB(t *testing.T) *MySQL {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	m, err := OpenDatabase(sqlite.Open(dsn), nil)
	require.NoError(t, err, "打开测试数据库失败")
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func sampleInfo(name string) types.StructInfo {
	return types.StructInfo{BasicInfo: &types.BasicInfo{Name: types.Str(name)}}
}

func TestSaveDraft_VersionsAndOutbox(t *testing.T) {
	m := openTestDB(t)
	ctx := context.Background()
	target := DraftTarget{Exchange: "intake.profile.exchange", RoutingKey: "profile.edited"}

	first, err := m.SaveDraft(ctx, 42, "a.pdf", &types.ResumeFormValues{Name: "张三"}, sampleInfo("张三"), true, target)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version, "第一次保存应为版本1")

	second, err := m.SaveDraft(ctx, 42, "a.pdf", nil, sampleInfo("李四"), false, target)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version, "同一简历的版本应递增")

	other, err := m.SaveDraft(ctx, 7, "b.pdf", nil, sampleInfo("王五"), true, target)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version, "不同简历的版本互不影响")

	var msgs []models.OutboxMessage
	require.NoError(t, m.DB().Order("id asc").Find(&msgs).Error)
	require.Len(t, msgs, 3, "每次保存都应写入一条发件箱消息")
	assert.Equal(t, "42", msgs[0].AggregateID)
	assert.Equal(t, constants.OutboxStatusPending, msgs[0].Status)
	assert.Equal(t, constants.EventProfileEdited, msgs[0].EventType)
	assert.Equal(t, target.RoutingKey, msgs[0].TargetRoutingKey)

	var evt events.ProfileEditedEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[1].Payload), &evt))
	assert.Equal(t, int64(42), evt.ResumeID)
	assert.Equal(t, second.ID, evt.DraftID, "事件应引用刚写入的草稿")
	require.NotNil(t, evt.StructInfo.BasicInfo)
	assert.Equal(t, "李四", types.Deref(evt.StructInfo.BasicInfo.Name))
}

func TestSaveDraft_NoExchangeSkipsOutbox(t *testing.T) {
	m := openTestDB(t)

	_, err := m.SaveDraft(context.Background(), 1, "", nil, sampleInfo("张三"), true, DraftTarget{})
	require.NoError(t, err)

	var count int64
	require.NoError(t, m.DB().Model(&models.OutboxMessage{}).Count(&count).Error)
	assert.Zero(t, count, "未配置交换机时不应写发件箱")
}

func TestLatestDraft(t *testing.T) {
	m := openTestDB(t)
	ctx := context.Background()

	_, err := m.LatestDraft(ctx, 99)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	_, err = m.SaveDraft(ctx, 99, "c.pdf", nil, sampleInfo("旧名字"), true, DraftTarget{})
	require.NoError(t, err)
	_, err = m.SaveDraft(ctx, 99, "c.pdf", &types.ResumeFormValues{Name: "新名字"}, sampleInfo("新名字"), false, DraftTarget{})
	require.NoError(t, err)

	latest, err := m.LatestDraft(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.False(t, latest.Synced)

	info := DraftStructInfo(latest)
	require.NotNil(t, info)
	require.NotNil(t, info.BasicInfo)
	assert.Equal(t, "新名字", types.Deref(info.BasicInfo.Name))
	assert.Nil(t, DraftStructInfo(nil))
}

package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: {app}:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "intake"

	// SessionModulePrefix 会话模块
	SessionModulePrefix = "session"
	// DetailModulePrefix 简历详情模块
	DetailModulePrefix = "detail"

	// EntityFingerprints 文件指纹集合实体
	EntityFingerprints = "fingerprints"

	// KeySessionFingerprints 会话内已成功提交的文件指纹 (SET)
	// 格式: intake:session:{sessionID}:fingerprints
	KeySessionFingerprints = AppPrefix + ":" + SessionModulePrefix + ":%s:" + EntityFingerprints
)

package profile

import (
	"strings"
	"unicode"
)

// 列表在表单中的拼接符
const (
	listJoiner        = "、"
	achievementJoiner = "\n"
)

// isSkillDelimiter 技能分隔符：英文逗号、中文逗号、顿号、换行
func isSkillDelimiter(r rune) bool {
	switch r {
	case ',', '，', '、', '\n':
		return true
	}
	return false
}

// isTagDelimiter 兴趣/软技能分隔符：在技能分隔符基础上加任意空白
func isTagDelimiter(r rune) bool {
	return isSkillDelimiter(r) || unicode.IsSpace(r)
}

// splitTokens 按分隔符切分，去掉首尾空白并丢弃空项
func splitTokens(text string, delim func(rune) bool) []string {
	parts := strings.FieldsFunc(text, delim)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// unionTokens 按首次出现顺序合并去重
func unionTokens(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, tok := range list {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// splitAchievements 按换行切分成就，空行丢弃；空输入得到空列表
func splitAchievements(text string) []string {
	lines := strings.Split(text, achievementJoiner)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// joinNonEmpty 拼接非空项
func joinNonEmpty(items []string, sep string) string {
	kept := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}

package chatroom

import (
	"math/rand/v2"
	"strings"
)

// poetryWords 暱稱詞庫
// 每個會話加入聊天室時隨機取一到兩個詞組成臨時暱稱
var poetryWords = []string{
	"明月", "清风", "松涛", "荷香", "流泉", "晚霞", "孤雁", "残雪",
	"相思", "莫愁", "悠然", "欣然", "浩然", "知远", "念远",
	"客舟", "孤帆", "古寺", "寒窗", "东篱", "西楼", "南浦",
	"听竹", "观云", "望岳", "踏雪", "寻梅", "垂钓", "醉眠",
}

// GenerateNickname 生成臨時暱稱
// 暱稱只在會話生命週期內有效，不做全局唯一性保證
func GenerateNickname() string {
	count := 1 + rand.IntN(2)

	// 不重複取詞
	picked := rand.Perm(len(poetryWords))[:count]

	var sb strings.Builder
	for _, i := range picked {
		sb.WriteString(poetryWords[i])
	}
	return sb.String()
}

// Package llmjson 提供从模型输出中提取 JSON 的工具
// 模型返回的 JSON 常混杂解释文字、markdown 代码块或残缺括号，
// 统一在这里提取和修复，调用方将解析失败当作数据处理，不抛异常
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractObject 从文本中提取第一个平衡的 JSON 对象
// 取第一个 '{' 到最后一个 '}' 之间的子串；找不到对象时返回 ok=false
func ExtractObject(s string) (string, bool) {
	s = strings.TrimSpace(s)

	i := strings.IndexByte(s, '{')
	j := strings.LastIndexByte(s, '}')
	if i < 0 || j < i {
		return "", false
	}
	return s[i : j+1], true
}

// Unmarshal 提取文本中的 JSON 对象并解析到 v
// 解析失败时先经 jsonrepair 修复再试一次；全部失败返回 ok=false
func Unmarshal(s string, v interface{}) bool {
	obj, found := ExtractObject(s)
	if !found {
		return false
	}

	// 快速路径：本身就是有效 JSON
	if json.Valid([]byte(obj)) {
		return json.Unmarshal([]byte(obj), v) == nil
	}

	// 移除常见的模型生成伪影
	cleaned := strings.TrimPrefix(obj, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if json.Valid([]byte(cleaned)) {
		return json.Unmarshal([]byte(cleaned), v) == nil
	}

	// 强力修复
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(repaired), v) == nil
}

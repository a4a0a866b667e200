// Package rag 提供历史评估检索，用于增强评分提示词
package rag

import (
	"bufio"
	"encoding/json"
	"log"
	"math"
	"os"
)

// Rubric 历史评估的四项评分
type Rubric struct {
	Comprehension  float64 `json:"comprehension"`
	Design         float64 `json:"design"`
	Implementation float64 `json:"implementation"`
	Functionality  float64 `json:"functionality"`
}

// HistoricalExample 历史评估记录，进程启动时加载，运行期只读
type HistoricalExample struct {
	Code       string  `json:"code"`
	Rubric     Rubric  `json:"rubric"`
	TotalScore float64 `json:"total_score"`
	Feedback   string  `json:"feedback"`
	Week       string  `json:"week,omitempty"`
}

// Stats 数据集统计
type Stats struct {
	Total    int     `json:"total"`
	Loaded   bool    `json:"loaded"`
	AvgScore float64 `json:"avg_score"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
}

// LoadCorpus 从 JSONL 文件加载历史评估数据集
// 文件不存在时返回空数据集（RAG 退化为无示例），不报错
func LoadCorpus(path string) []HistoricalExample {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("RAG corpus not found at %s, running without historical examples", path)
		return nil
	}
	defer f.Close()

	var corpus []HistoricalExample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ex HistoricalExample
		if err := json.Unmarshal(raw, &ex); err != nil {
			log.Printf("RAG corpus: skipping malformed line %d: %v", line, err)
			continue
		}
		corpus = append(corpus, ex)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("RAG corpus: read error after %d examples: %v", len(corpus), err)
	}

	log.Printf("RAG corpus loaded: %d historical evaluations", len(corpus))
	return corpus
}

// ComputeStats 计算数据集统计
func ComputeStats(corpus []HistoricalExample) Stats {
	if len(corpus) == 0 {
		return Stats{}
	}

	s := Stats{
		Total:    len(corpus),
		Loaded:   true,
		MinScore: corpus[0].TotalScore,
		MaxScore: corpus[0].TotalScore,
	}
	sum := 0.0
	for _, ex := range corpus {
		sum += ex.TotalScore
		if ex.TotalScore < s.MinScore {
			s.MinScore = ex.TotalScore
		}
		if ex.TotalScore > s.MaxScore {
			s.MaxScore = ex.TotalScore
		}
	}
	s.AvgScore = round2(sum / float64(len(corpus)))
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package video

import (
	"math"
)

// speakerGapSeconds 片段间静默超过该秒数视为换人
const speakerGapSeconds = 2.0

// SpeakerStat 单个说话人的参与统计
type SpeakerStat struct {
	SpeakerID  int     `json:"speaker_id"`
	Segments   int     `json:"segments"`
	Time       float64 `json:"time"`       // 说话总秒数
	Percentage float64 `json:"percentage"` // 占视频时长的百分比
}

// DetectSpeakers 基于静默间隔的粗粒度说话人切分
// 仅作参与度报告，不影响扣分
func DetectSpeakers(segments []Segment, totalDuration float64) []SpeakerStat {
	if len(segments) == 0 {
		return nil
	}

	var stats []SpeakerStat
	var current []Segment
	lastEnd := 0.0

	flush := func() {
		if len(current) == 0 {
			return
		}
		total := 0.0
		for _, s := range current {
			total += s.End - s.Start
		}
		pct := 0.0
		if totalDuration > 0 {
			pct = total / totalDuration * 100
		}
		stats = append(stats, SpeakerStat{
			SpeakerID:  len(stats) + 1,
			Segments:   len(current),
			Time:       round2(total),
			Percentage: round2(pct),
		})
		current = nil
	}

	for _, seg := range segments {
		if seg.Start-lastEnd > speakerGapSeconds {
			flush()
		}
		current = append(current, seg)
		lastEnd = seg.End
	}
	flush()

	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

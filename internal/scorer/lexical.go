package scorer

import (
	"fmt"
	"strings"
	"unicode"

	"resume-tailor-go/internal/types"
)

// lexicalThreshold 词法降级模式下的匹配阈值。
// 词法包含率的分布比余弦相似度低得多，不能复用语义阈值。
const lexicalThreshold = 0.2

// lexicalStopWords 对匹配只产生噪声的高频英文词
var lexicalStopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "good": true,
	"able": true, "strong": true, "experience": true, "knowledge": true,
	"years": true, "year": true, "skills": true, "plus": true,
}

// tokenize 把文本切成小写关键词集合，跳过停用词。
// 把 + # . 视作词内字符，保留 c++ / c# / node.js 这类技术词
func tokenize(text string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 2 && !lexicalStopWords[w] {
			kw[w] = true
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return kw
}

// lexicalScore 要求关键词被条目文本覆盖的比例，[0,1]。
// 用包含率而不是Jaccard：条目比要求长得多，对称度量会被稀释
func lexicalScore(reqTokens map[string]bool, entityText string) float64 {
	if len(reqTokens) == 0 {
		return 0
	}
	entityTokens := tokenize(entityText)
	hit := 0
	for t := range reqTokens {
		if entityTokens[t] {
			hit++
		}
	}
	return float64(hit) / float64(len(reqTokens))
}

// scoreLexical 词法降级评分。逐对计算关键词包含率，
// 结果标记 Degraded，阈值改用词法阈值
func (s *Scorer) scoreLexical(sessionID string, entities []types.ResumeEntity, job *types.JobModel) *types.AlignmentResult {
	result := &types.AlignmentResult{
		SessionID: sessionID,
		Matches:   []types.Match{},
		Gaps:      []types.Gap{},
		Metadata: types.AlignmentMetadata{
			Degraded:  true,
			Threshold: lexicalThreshold,
		},
	}

	for _, req := range job.Requirements {
		reqTokens := tokenize(req.Content)

		bestScore := 0.0
		bestID := ""
		for _, e := range entities {
			// 遍历顺序即简历顺序，严格大于保证同分取靠前条目
			if score := lexicalScore(reqTokens, e.Latest()); score > bestScore {
				bestScore = score
				bestID = e.ID
			}
		}

		if bestID != "" && bestScore >= lexicalThreshold {
			result.Matches = append(result.Matches, types.Match{
				RequirementID:   req.ID,
				RequirementKind: req.Kind,
				EntityID:        bestID,
				Similarity:      bestScore,
				Weighted:        bestScore * req.Weight,
			})
			continue
		}

		if req.Kind.Required() {
			result.Gaps = append(result.Gaps, types.Gap{
				Requirement: req,
				Reason:      fmt.Sprintf("no resume entry shares enough keywords (best %.2f)", bestScore),
			})
		}
	}

	result.Coverage = coverage(result.Matches, job)
	return result
}

package types

// EmbeddingVector 一段文本的定长向量表示。创建后不可变，
// 源文本变化时整体替换而不是修改。
type EmbeddingVector struct {
	ID          string    `json:"id"`           // 所表示的条目/要求的ID
	ContentHash string    `json:"content_hash"` // 源文本的内容哈希（缓存键）
	Values      []float64 `json:"values"`
}

// Match 一条岗位要求与其最佳匹配简历条目的配对
type Match struct {
	RequirementID   string          `json:"requirement_id"`
	RequirementKind RequirementKind `json:"requirement_kind"`
	EntityID        string          `json:"entity_id"`
	Similarity      float64         `json:"similarity"` // 重缩放后的余弦相似度，[0,1]
	Weighted        float64         `json:"weighted"`   // similarity * requirement_weight
}

// Gap 没有任何简历条目达到相似度阈值的必备要求
type Gap struct {
	Requirement JobRequirement `json:"requirement"`
	Reason      string         `json:"reason"`
}

// AlignmentMetadata 评分结果的元数据
type AlignmentMetadata struct {
	// Degraded 是否使用了词法降级模式（向量后端不可用时）
	Degraded bool `json:"degraded"`
	// EmbeddingModel 使用的向量模型版本
	EmbeddingModel string `json:"embedding_model,omitempty"`
	// Threshold 使用的相似度阈值
	Threshold float64 `json:"threshold"`
}

// AlignmentResult 简历与岗位的对齐评分结果。
// 对固定输入是确定性的，只读计算产物，不跨会话持久化。
type AlignmentResult struct {
	SessionID string            `json:"session_id,omitempty"`
	Matches   []Match           `json:"matches"` // 按岗位要求的原始顺序排列
	Gaps      []Gap             `json:"gaps"`
	Coverage  float64           `json:"coverage"` // 必备要求中被匹配到的比例
	Metadata  AlignmentMetadata `json:"metadata"`
}

// MatchFor 返回指定要求的匹配结果，未匹配时返回nil
func (r *AlignmentResult) MatchFor(requirementID string) *Match {
	for i := range r.Matches {
		if r.Matches[i].RequirementID == requirementID {
			return &r.Matches[i]
		}
	}
	return nil
}

// BestMatchByEntity 按简历条目聚合：条目ID -> 其最重要的一次匹配。
// 必备类匹配优先于其他类别，同类别取最高加权分。
// 优化器用它决定条目的保留优先级。
func (r *AlignmentResult) BestMatchByEntity() map[string]Match {
	best := make(map[string]Match)
	for _, m := range r.Matches {
		prev, ok := best[m.EntityID]
		if !ok {
			best[m.EntityID] = m
			continue
		}
		if m.RequirementKind.Required() != prev.RequirementKind.Required() {
			if m.RequirementKind.Required() {
				best[m.EntityID] = m
			}
			continue
		}
		if m.Weighted > prev.Weighted {
			best[m.EntityID] = m
		}
	}
	return best
}

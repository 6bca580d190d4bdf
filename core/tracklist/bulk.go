package tracklist

import (
	"context"
	"errors"

	"playpod/model"
)

// SkipReason 批量追加时跳过的原因
type SkipReason string

const (
	SkipMalformed  SkipReason = "malformed"
	SkipDuplicate  SkipReason = "duplicate"
	SkipUnresolved SkipReason = "unresolved"
)

// Skipped 一个被跳过的输入
type Skipped struct {
	ID     string     `json:"id"`
	Reason SkipReason `json:"reason"`
}

// BulkResult 批量追加的部分成功结果，调用方必须检查
type BulkResult struct {
	Added      []model.ListTrack `json:"added"`
	Skipped    []Skipped         `json:"skipped"`
	AddedCount int               `json:"added_count"`
	Total      int               `json:"total"`
}

// Plan 批量追加的预处理结果：需要解析元数据的ID和已确定跳过的输入
type Plan struct {
	Pending []string
	Skipped []Skipped
}

// PlanBulk 在解析元数据之前过滤格式错误、重复和已存在的ID，保持输入顺序
func PlanBulk(ids []string, existing map[string]bool) Plan {
	var plan Plan
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		id, ok := model.NormalizeTrackID(raw)
		switch {
		case !ok:
			plan.Skipped = append(plan.Skipped, Skipped{ID: raw, Reason: SkipMalformed})
		case existing[id] || seen[id]:
			plan.Skipped = append(plan.Skipped, Skipped{ID: id, Reason: SkipDuplicate})
		default:
			seen[id] = true
			plan.Pending = append(plan.Pending, id)
		}
	}
	return plan
}

// BulkAppend 按 plan.Pending 的顺序追加已解析的曲目。
// 没有出现在 resolved 中的ID记为 unresolved，期间变成重复的记为 duplicate。
func (l *List) BulkAppend(ctx context.Context, plan Plan, resolved map[string]model.TrackRef) (BulkResult, error) {
	result := BulkResult{Skipped: append([]Skipped(nil), plan.Skipped...)}

	for _, id := range plan.Pending {
		ref, ok := resolved[id]
		if !ok {
			result.Skipped = append(result.Skipped, Skipped{ID: id, Reason: SkipUnresolved})
			continue
		}

		track, err := l.Append(ctx, ref)
		if err != nil {
			if isDuplicate(err) {
				result.Skipped = append(result.Skipped, Skipped{ID: id, Reason: SkipDuplicate})
				continue
			}
			return result, err
		}
		result.Added = append(result.Added, *track)
	}

	total, err := l.Count(ctx)
	if err != nil {
		return result, err
	}
	result.AddedCount = len(result.Added)
	result.Total = total
	return result, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, model.ErrDuplicateEntry)
}

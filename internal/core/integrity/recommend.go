package integrity

// Recommendation 面试结论建议
type Recommendation string

const (
	RecommendationPass   Recommendation = "pass"
	RecommendationReview Recommendation = "review"
	RecommendationFail   Recommendation = "fail"
)

// 结论判定阈值
const (
	passScoreThreshold   = 7.0 // 通过所需的最低综合得分
	failHighFlagCount    = 2   // 直接判不通过的 high 级违规数
	passModerateFlagMax  = 2   // 通过允许的 moderate 级违规上限
)

// Recommend 根据综合得分与违规数量给出结论建议
// 纯函数，不访问外部状态：
//  1. high 级违规达到 2 条直接 fail，优先于得分判定
//  2. 得分达标且无 high 级、moderate 不超过 2 条时 pass
//  3. 其余情况（含得分缺失）一律 review，交人工复核
func Recommend(score *float64, high, moderate int64) Recommendation {
	if high >= failHighFlagCount {
		return RecommendationFail
	}
	if score != nil && *score >= passScoreThreshold && high == 0 && moderate <= passModerateFlagMax {
		return RecommendationPass
	}
	return RecommendationReview
}

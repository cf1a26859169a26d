package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
)

// Response contract tokens. The remote model is instructed to emit these
// on a line of their own; parsing tolerates anything around them.
const (
	stanceFlaggedToken = "立场判断：是"
	stanceCleanToken   = "立场判断：否"

	subTierExperienceToken = "具体档次：A(体验)"
	subTierAnalysisToken   = "具体档次：A(分析)"
)

const stancePromptTemplate = `你是一个政治立场审查员。请分析以下视频文案，判断是否存在以下问题：
- 断章取义地歪曲事实
- 使用侮辱性词汇攻击国家、政府、军队或相关政策
- 凭空捏造不存在的负面事件或数据
- 阴阳怪气地讽刺或影射

如果存在上述任何一种情况，请在最后一行输出“立场判断：是”；否则输出“立场判断：否”。无需输出其他分析。

视频标题：%s
文案：
%s
`

const critiquePromptTemplate = `你是一个立场坚定的爱国者。以下视频文案存在恶意歪曲事实、侮辱国家/政府/军队、阴阳怪气等问题。请你以最严厉的语气驳斥其错误逻辑，揭露其荒谬之处，并指出正确的立场。请用批判性的语言，有理有据地反驳，但不要过度情绪化。

视频标题：%s
文案：
%s

请直接开始你的批判：`

const sPromptTemplate = `你是一个专业的视频内容分析师，熟悉视频质量的分级标准。请对以下B站视频的文案进行分析，并回答七个问题。

【S档视频的核心特征】
- 内容极深入，具有系统性：视频围绕一个核心主题展开完整的知识框架，不是零散观点堆砌。
- 多维度论证，旁征博引：大量引用历史案例、经典著作、真实人物故事，论证层层递进。
- 原创性解读，有独特视角：提供超越常识的独特分析视角，给人启发感。
- 逻辑严密，结构清晰：有明确的叙事主线，分章节展开，前后呼应。
- 语言精炼，信息密度高：每句话都承载信息，无废话，篇幅长但不觉冗长。
- 有思想深度，引人思考：传递价值观或思维方式，能引发读者反思。
- 结合现实，有实用价值：联系现代人的职场、人生选择，让人感觉“有用”。

视频标题：%s
文案全文：
%s

请基于以上信息，用流畅的中文输出你的评价，并**按顺序**回答以下问题：

1. **核心内容与观点**：这个视频主要讲了什么？它的核心观点或主题是什么？（请用1-2句话概括）
2. **观点价值**：这个观点有没有价值？为什么？（例如，是否具有启发性、实用性、独特性，或者提供了新的视角？）
3. **论证逻辑**：视频是如何论证自己的观点的？逻辑性强不强？（请分析其论证结构、证据使用、推理过程等，可指出优点或不足）
4. **内容系统性**：视频是否有完整的知识框架，还是零散观点？请举例说明。
5. **论证丰富性**：是否旁征博引？引用的案例和素材是否有力支撑了观点？
6. **思想深度**：是否传递了值得思考的价值观或思维方式？
7. **现实价值**：对现代人是否有实用启发？

**最终评价**：请用一段话总结你对这个视频的整体看法，并说明它是否符合S档的标准。

请确保你的评价字数不少于 %d 字（原视频字数为 %d）。

请在最末尾单独一行以“是否符合S档：是”或“是否符合S档：否”的格式给出结论。`

const aPromptTemplate = `你是一个专业的视频内容分析师，熟悉视频质量的分级标准。请对以下B站视频的文案进行分析，并回答六个问题。

【A档视频的核心特征】
- 主题明确，但未形成完整的知识体系：视频有清晰的主题，但内容以个人体验、故事叙述或单一角度分析为主，而非系统性的知识框架。
- **思辨性与逻辑性要求**：必须根据视频题材区分要求：
  - 若为**个人题材**（如情感、个人成长、生活感悟）：可放宽逻辑要求，允许情感主导，但需情感真挚、有共鸣感。
  - 若为**社会集体题材**（如历史解读、社会现象分析、行业揭秘、群体观察）：必须有清晰的逻辑论证（因果链条、证据支撑、结构严谨），不能仅凭个人情感体验。
- **格局要求**：无论何种题材，均不得有“小资产阶级小家子气”——即无病呻吟、矫揉造作、格局狭小、过度关注个人琐碎情绪而无社会关怀或普世价值的内容。此类视频即使符合其他特征，也应降档。
- 情感或个人体验色彩（适用于个人题材）：能够引发情感共鸣，或带有强烈的个人视角。
- 故事性或叙事性强（适用于个人题材）：通过讲述故事来传递观点，有完整的情节线。
- 分析角度单一但深入（适用于社会题材）：聚焦于某个具体问题或人物，进行深入剖析，但缺乏多维度旁征博引。
- 信息密度适中，逻辑清晰：内容充实但不密集，逻辑结构清楚。
- 有思想启发但未成体系：能提供有价值的视角或感悟，但不足以作为系统性学习材料。

【与S档的主要区别】
- S档具有完整的知识框架和系统性，A档缺乏系统性。
- S档旁征博引多案例，A档案例相对集中或单一。
- S档信息密度极高，A档信息密度适中。
- S档更偏理性启发，A档更偏情感共鸣或个人感悟。

【与B档（资讯汇编）的主要区别】
- B档可能信息密度高、逻辑清晰，但多为事实陈述、行业揭秘、知识科普，缺乏原创性深度见解或独特视角。
- A档必须包含超越资讯整合的、具有个人思考深度的观点。

视频标题：%s
文案全文：
%s

请基于以上信息，用流畅的中文输出你的评价，并**按顺序**回答以下问题：

1. **核心内容与观点**：这个视频主要讲了什么？它的核心观点或主题是什么？（请用1-2句话概括）
2. **观点价值**：这个观点有没有价值？为什么？（例如，是否具有启发性、实用性、独特性，或者提供了新的视角？）
3. **论证逻辑**：视频是如何论证自己的观点的？逻辑性强不强？（请分析其论证结构、证据使用、推理过程等，可指出优点或不足）
4. **原创性见解**：视频是否提供了超越常识的、具有个人深度的观点？还是仅仅是事实和资讯的罗列？
5. **情感/体验色彩**：视频是否具有明显的情感或个人体验色彩？如果有，请描述。
6. **思想启发**：视频是否提供了有价值的视角或感悟？

**最终评价**：请用一段话总结你对这个视频的整体看法，并说明它是否符合A档标准。如果符合，请进一步指出它是属于“A(体验)”还是“A(分析)”，并简述理由。

请确保你的评价字数不少于 1200 字。

请在最末尾单独一行以“是否符合A档：是”或“是否符合A档：否”的格式给出结论。如果符合，请在下一行以“具体档次：A(体验)”或“具体档次：A(分析)”的格式给出具体档次。`

func buildStancePrompt(title, transcript string) string {
	return fmt.Sprintf(stancePromptTemplate, title, transcript)
}

func buildCritiquePrompt(title, transcript string) string {
	return fmt.Sprintf(critiquePromptTemplate, title, transcript)
}

// buildSPrompt asks for a review at least half the transcript length, with
// a 500-character floor.
func buildSPrompt(title, transcript string) string {
	totalChars := utf8.RuneCountInString(transcript)
	targetLen := totalChars / 2
	if targetLen < 500 {
		targetLen = 500
	}
	return fmt.Sprintf(sPromptTemplate, title, transcript, targetLen, totalChars)
}

func buildAPrompt(title, transcript string) string {
	return fmt.Sprintf(aPromptTemplate, title, transcript)
}

// stanceVerdict is the outcome of the compliance pre-check.
type stanceVerdict int

const (
	stanceClean stanceVerdict = iota
	stanceFlagged
	stanceUnknown
)

// parseStanceVerdict resolves the compliance reply. The flagged token is
// checked first; a reply carrying neither token is unknown and the caller
// degrades it to clean.
func parseStanceVerdict(reply string) stanceVerdict {
	switch {
	case strings.Contains(reply, stanceFlaggedToken):
		return stanceFlagged
	case strings.Contains(reply, stanceCleanToken):
		return stanceClean
	default:
		return stanceUnknown
	}
}

// parseSubTier extracts the optional sub-tier declaration from an A-path
// review reply. Returns empty when the reply declares none.
func parseSubTier(reply string) scoring.Tier {
	switch {
	case strings.Contains(reply, subTierExperienceToken):
		return scoring.TierAExperience
	case strings.Contains(reply, subTierAnalysisToken):
		return scoring.TierAAnalysis
	default:
		return ""
	}
}

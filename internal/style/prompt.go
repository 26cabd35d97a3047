package style

import (
	"fmt"
	"strings"
)

// RenderPrompt expands fp into a style-instruction block for the narrator.
// rawSample is used for the opening excerpt when fp carries none.
func RenderPrompt(fp *Fingerprint, rawSample string) string {
	if fp == nil {
		return ""
	}

	sampleText := rawSample
	if sampleText == "" {
		sampleText = fp.Sample
	}
	beginning := fp.Samples.Beginning
	if beginning == "" {
		beginning = prefix(sampleText, 500)
	}

	d := fp.Distribution
	var b strings.Builder

	b.WriteString("# 文字风格要求（极其重要，必须严格遵守）\n\n")
	b.WriteString("## 原始故事的文字风格特征分析：\n\n")

	b.WriteString("### 基础特征：\n")
	fmt.Fprintf(&b, "- **句子平均长度**：约%d字\n", fp.AvgSentenceLength)
	fmt.Fprintf(&b, "- **句子长度分布**：短句(%d%%)、中句(%d%%)、长句(%d%%)\n", d.Short, d.Medium, d.Long)
	fmt.Fprintf(&b, "- **段落风格**：%s\n", paragraphLabel(fp.ParagraphStyle))
	fmt.Fprintf(&b, "- **段落平均长度**：约%d字\n", fp.AvgParagraphLength)
	fmt.Fprintf(&b, "- **包含对话**：%s\n", yesNo(fp.HasDialogue))
	fmt.Fprintf(&b, "- **包含描述**：%s\n", yesNo(fp.HasDescription))
	fmt.Fprintf(&b, "- **包含动作**：%s\n", yesNo(fp.HasAction))
	fmt.Fprintf(&b, "- **包含心理**：%s\n\n", yesNo(fp.HasEmotion))

	p := fp.Patterns
	b.WriteString("### 句式特点：\n")
	fmt.Fprintf(&b, "- 疑问句比例：%d%%\n", p.QuestionRatio)
	fmt.Fprintf(&b, "- 感叹句比例：%d%%\n", p.ExclamationRatio)
	fmt.Fprintf(&b, "- 使用排比：%s\n", yesNo(p.HasParallel))
	fmt.Fprintf(&b, "- 使用重复：%s\n\n", yesNo(p.HasRepetition))

	r := fp.Rhetoric
	b.WriteString("### 修辞手法：\n")
	fmt.Fprintf(&b, "- 比喻：%s\n", often(r.Metaphor))
	fmt.Fprintf(&b, "- 拟人：%s\n", often(r.Personification))
	fmt.Fprintf(&b, "- 夸张：%s\n", often(r.Exaggeration))
	fmt.Fprintf(&b, "- 对比：%s\n\n", often(r.Contrast))

	if len(fp.CommonWords) > 0 {
		words := fp.CommonWords[:min(10, len(fp.CommonWords))]
		b.WriteString("### 常用词汇特征：\n")
		fmt.Fprintf(&b, "原始故事中常用的词汇包括：%s等\n", strings.Join(words, "、"))
		b.WriteString("请在生成内容中适当使用这些词汇，保持用词习惯的一致性。\n\n")
	}

	b.WriteString("## 原始故事风格示例（必须严格模仿）：\n\n")
	fmt.Fprintf(&b, "### 开头风格示例：\n%s\n\n", beginning)
	if fp.Samples.Middle != "" {
		fmt.Fprintf(&b, "### 中间风格示例：\n%s\n\n", fp.Samples.Middle)
	}
	if fp.Samples.End != "" {
		fmt.Fprintf(&b, "### 结尾风格示例：\n%s\n\n", fp.Samples.End)
	}

	b.WriteString("## 风格模仿要求（必须严格遵守）：\n\n")
	b.WriteString("**你必须像复制粘贴一样严格模仿原始故事的文字风格**，具体要求：\n\n")

	b.WriteString("1. **句子长度**：严格按照原始故事的句子长度分布来写\n")
	fmt.Fprintf(&b, "   - 短句（<30字）占%d%%\n", d.Short)
	fmt.Fprintf(&b, "   - 中句（30-60字）占%d%%\n", d.Medium)
	fmt.Fprintf(&b, "   - 长句（>60字）占%d%%\n\n", d.Long)

	if fp.ParagraphStyle == Segmented {
		b.WriteString("2. **段落结构**：使用分段式，每段独立成段\n\n")
	} else {
		b.WriteString("2. **段落结构**：使用连续式，段落之间紧密连接\n\n")
	}

	b.WriteString("3. **用词习惯**：\n")
	b.WriteString("   - 必须使用与原始故事相似的词汇\n")
	b.WriteString("   - 保持相同的语言风格和表达方式\n")
	b.WriteString("   - 避免使用原始故事中没有出现的现代网络用语或过于口语化的表达\n\n")

	b.WriteString("4. **句式结构**：\n")
	b.WriteString("   - 保持与原始故事相同的句式特点\n")
	fmt.Fprintf(&b, "   - %s\n", pick(p.HasParallel, "适当使用排比句式", "避免过度使用排比"))
	fmt.Fprintf(&b, "   - %s\n\n", pick(p.HasRepetition, "可以适当使用重复强调", "避免不必要的重复"))

	b.WriteString("5. **描写风格**：\n")
	fmt.Fprintf(&b, "   - %s\n", pick(fp.HasDialogue, "必须包含对话，格式与原始故事保持一致", "少用或不用对话"))
	fmt.Fprintf(&b, "   - %s\n", pick(fp.HasDescription, "详细描写场景、环境、外貌等", "描写要简洁"))
	fmt.Fprintf(&b, "   - %s\n", pick(fp.HasAction, "详细描写动作和过程", "动作描写要简洁"))
	fmt.Fprintf(&b, "   - %s\n\n", pick(fp.HasEmotion, "详细描写心理活动和情感", "心理描写要简洁"))

	b.WriteString("6. **叙述节奏**：\n")
	b.WriteString("   - 保持与原始故事相同的叙述节奏\n")
	b.WriteString("   - 快慢结合的方式要与原始故事一致\n")
	b.WriteString("   - 详略安排要与原始故事保持一致\n\n")

	b.WriteString("7. **修辞手法**：\n")
	fmt.Fprintf(&b, "   - %s\n", pick(r.Metaphor, "适当使用比喻", "少用比喻"))
	fmt.Fprintf(&b, "   - %s\n", pick(r.Personification, "可以适当使用拟人", "少用拟人"))
	fmt.Fprintf(&b, "   - %s\n", pick(r.Exaggeration, "可以适当使用夸张", "避免过度夸张"))
	fmt.Fprintf(&b, "   - %s\n\n", pick(r.Contrast, "适当使用对比", "少用对比"))

	b.WriteString("## 重要提醒：\n\n")
	b.WriteString("**生成的内容必须与原始故事的文字风格高度一致，让读者感觉是同一作者写的。**\n")
	b.WriteString("**在生成每一句话时，都要参考原始故事的风格示例，确保风格完全一致。**\n")
	b.WriteString("**如果生成的风格与原始故事不一致，必须重新生成。**")

	return b.String()
}

func paragraphLabel(style string) string {
	if style == Segmented {
		return "分段"
	}
	return "连续"
}

func yesNo(v bool) string { return pick(v, "是", "否") }

func often(v bool) string { return pick(v, "常用", "少用") }

func pick(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

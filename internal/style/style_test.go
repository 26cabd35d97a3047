package style

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paragraphs = []string{
	"夜色沉沉，林默推开旅店的门，带进一阵冷风。老板娘抬起头，像是早就在等他。“你来晚了。”她说。",
	"林默没有回答，只是把湿透的斗篷挂在墙上。炉火噼啪作响，照亮了他疲惫的脸！",
	"“北边的路断了吗？”他低声问。老板娘摇了摇头，心里却想着另一件事。",
	"窗外的雨越下越大，仿佛要把整座小镇淹没。但是没有人在意，酒客们依旧笑着喝酒。",
	"林默坐在角落里，慢慢地喝着热汤，感受着久违的温暖。",
}

func cycle() string { return strings.Join(paragraphs, "\n\n") }

func story(cycles int) string {
	parts := make([]string, cycles)
	for i := range parts {
		parts[i] = cycle()
	}
	return strings.Join(parts, "\n\n")
}

func TestAnalyze_TooShort(t *testing.T) {
	assert.Nil(t, Analyze(strings.Repeat("短", MinStoryLength-1)))
	assert.NotNil(t, Analyze(strings.Repeat("短", MinStoryLength)))
}

func TestAnalyze_Fingerprint(t *testing.T) {
	fp := Analyze(story(30))
	require.NotNil(t, fp)

	d := fp.Distribution
	assert.InDelta(t, 100, d.Short+d.Medium+d.Long, 2)
	assert.Equal(t, Segmented, fp.ParagraphStyle)
	assert.True(t, fp.HasDialogue)
	assert.True(t, fp.HasDescription)
	assert.True(t, fp.HasAction)
	assert.True(t, fp.HasEmotion)
	assert.True(t, fp.Rhetoric.Metaphor)
	assert.True(t, fp.Rhetoric.Contrast)
	assert.Len(t, fp.CommonWords, topWords)

	// Long stories are sampled from three regions.
	assert.NotEmpty(t, fp.Samples.Beginning)
	assert.NotEmpty(t, fp.Samples.Middle)
	assert.NotEmpty(t, fp.Samples.End)
	assert.LessOrEqual(t, len([]rune(fp.Sample)), 2000)
}

func TestAnalyze_ShortStorySingleSample(t *testing.T) {
	fp := Analyze(cycle())
	require.NotNil(t, fp)
	assert.Empty(t, fp.Samples.Middle)
	assert.Empty(t, fp.Samples.End)
}

func TestAnalyze_Continuous(t *testing.T) {
	fp := Analyze(strings.Repeat("他一直走。", 30))
	require.NotNil(t, fp)
	assert.Equal(t, Continuous, fp.ParagraphStyle)
	assert.False(t, fp.HasDialogue)
	assert.Equal(t, 100, fp.Distribution.Short)
	assert.Equal(t, 4, fp.AvgSentenceLength)
}

func TestSentencePatterns(t *testing.T) {
	p := sentencePatterns([]string{"他走啊走啊，走到了河边，走到了山脚", "真的吗?", "好"})
	assert.True(t, p.HasParallel)
	assert.True(t, p.HasRepetition)
	assert.Equal(t, 33, p.QuestionRatio)
	assert.Equal(t, 0, p.ExclamationRatio)

	p = sentencePatterns([]string{"一二三四"})
	assert.False(t, p.HasParallel)
	assert.False(t, p.HasRepetition)
}

func TestSentencePatterns_LongSentence(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 125; i++ {
		sb.WriteRune(rune(0x5000 + i))
	}
	lead := sb.String()

	p := sentencePatterns([]string{lead + "，甲乙，丙丁"})
	assert.True(t, p.HasParallel)
	assert.False(t, p.HasRepetition)

	p = sentencePatterns([]string{lead + "走啊走啊"})
	assert.False(t, p.HasParallel)
	assert.True(t, p.HasRepetition)
}

func TestCommonWords_TiesKeepFirstSeen(t *testing.T) {
	words := commonWords("甲乙丙丁", 3)
	assert.Equal(t, []string{"甲乙", "乙丙", "丙丁"}, words)
}

func TestRenderPrompt(t *testing.T) {
	assert.Equal(t, "", RenderPrompt(nil, "x"))

	fp := Analyze(story(30))
	out := RenderPrompt(fp, "")
	assert.Contains(t, out, "# 文字风格要求")
	assert.Contains(t, out, "- **段落风格**：分段")
	assert.Contains(t, out, "- **包含对话**：是")
	assert.Contains(t, out, "### 中间风格示例")
	assert.Contains(t, out, "必须包含对话，格式与原始故事保持一致")
	assert.True(t, strings.HasSuffix(out, "**如果生成的风格与原始故事不一致，必须重新生成。**"))
}

func TestScore(t *testing.T) {
	fp := Analyze(story(30))
	require.NotNil(t, fp)

	same := Score(fp, cycle())
	unrelated := Score(fp, strings.Repeat("the quick brown fox jumps over the lazy dog ", 10))

	assert.Greater(t, same, 70)
	assert.LessOrEqual(t, unrelated, 30)
	assert.Greater(t, same, unrelated)
}

func TestScore_Degenerate(t *testing.T) {
	assert.Equal(t, 0, Score(nil, "text"))
	assert.Equal(t, 0, Score(&Fingerprint{}, ""))
}

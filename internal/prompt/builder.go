// Package prompt assembles the system prompts sent to the narrator model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/rcliao/storyteller/internal/chunker"
	"github.com/rcliao/storyteller/internal/command"
	"github.com/rcliao/storyteller/internal/locate"
	"github.com/rcliao/storyteller/internal/memory"
	"github.com/rcliao/storyteller/internal/model"
	"github.com/rcliao/storyteller/internal/style"
)

const (
	DefaultWorldBookLimit = 2000
	DefaultMemoryBudget   = 1500
)

const directOutput = "重要：直接输出故事内容，不要有任何推理过程、思考过程、分析过程等元内容。" +
	"不要输出\"根据...\"、\"考虑到...\"、\"我认为...\"等推理性语言。直接开始叙述。"

// Options configures a Builder.
type Options struct {
	Length         string  // model.LengthShort or model.LengthLong
	WorldBookLimit int     // runes of world book included per turn
	MemoryBudget   int     // tokens of memory included per turn
	Counter        Counter // nil means EstimateCounter
}

// Builder renders opening and per-turn prompts for one session.
type Builder struct {
	worldBook   string
	role        model.Role
	opts        Options
	fingerprint *style.Fingerprint
	styleSample string
}

// New validates the world book and role and returns a Builder.
func New(worldBook string, role model.Role, opts Options) (*Builder, error) {
	if strings.TrimSpace(worldBook) == "" {
		return nil, fmt.Errorf("%w: world book is empty", model.ErrInvalidInput)
	}
	if strings.TrimSpace(role.Name) == "" {
		return nil, fmt.Errorf("%w: role name is empty", model.ErrInvalidInput)
	}
	if opts.Length == "" {
		opts.Length = model.LengthShort
	}
	if !model.ValidLengths[opts.Length] {
		return nil, fmt.Errorf("%w: length %q", model.ErrInvalidInput, opts.Length)
	}
	if opts.WorldBookLimit <= 0 {
		opts.WorldBookLimit = DefaultWorldBookLimit
	}
	if opts.MemoryBudget <= 0 {
		opts.MemoryBudget = DefaultMemoryBudget
	}
	if opts.Counter == nil {
		opts.Counter = EstimateCounter{}
	}
	return &Builder{worldBook: worldBook, role: role, opts: opts}, nil
}

// Length returns the current reply length mode.
func (b *Builder) Length() string { return b.opts.Length }

// SetLength switches the reply length mode.
func (b *Builder) SetLength(mode string) error {
	if !model.ValidLengths[mode] {
		return fmt.Errorf("%w: length %q", model.ErrInvalidInput, mode)
	}
	b.opts.Length = mode
	return nil
}

// SetStyle sets the fingerprint used for the style block. A nil fp removes it.
func (b *Builder) SetStyle(fp *style.Fingerprint, sample string) {
	b.fingerprint = fp
	b.styleSample = sample
}

// Opening renders the prompt for the initial story. A non-blank
// customOpening must be fully contained and expanded by the narrator.
func (b *Builder) Opening(customOpening string) string {
	var sb strings.Builder
	sb.WriteString("你是一个专业的角色扮演游戏主持人。基于以下信息生成初始剧情：\n\n")
	sb.WriteString("世界书：\n")
	sb.WriteString(b.worldBook)
	sb.WriteString("\n\n")
	sb.WriteString(b.roleInfo("玩家角色："))

	if custom := strings.TrimSpace(customOpening); custom != "" {
		sb.WriteString("\n\n玩家自定义的开局描述：\n")
		sb.WriteString(custom)
		sb.WriteString("\n\n请根据玩家自定义的开局描述，结合世界书和角色设定，生成一个完整、详细的初始剧情（1000-3000字）。要求：\n")
		writeList(&sb,
			"必须完全包含玩家描述的所有元素和场景",
			"在玩家描述的基础上，进行详细的扩展和补充",
			"详细描写场景、动作、心理、环境等各个方面",
			"让玩家描述的开头场景变得生动、完整、引人入胜",
			"必须使用全中文输出",
			"必须使用第三人称视角进行长叙述",
			"严格遵循世界书设定和角色设定",
			"让玩家有代入感",
			"为后续互动留下空间",
		)
	} else {
		sb.WriteString("\n\n请生成一段引人入胜的初始剧情（1000-3000字），让玩家进入这个虚拟世界。要求：\n")
		writeList(&sb,
			"必须使用全中文输出",
			"必须使用第三人称视角进行长叙述",
			"详细描写场景、动作、心理、环境等",
			"严格遵循世界书设定和角色设定",
			"让玩家有代入感",
			"为后续互动留下空间",
		)
	}

	sb.WriteString("\n\n")
	sb.WriteString(directOutput)
	return sb.String()
}

// TurnInput is everything that varies between turns.
type TurnInput struct {
	Command string
	Memory  memory.Summary
	Located *locate.Window
}

// Turn renders the per-turn system prompt.
func (b *Builder) Turn(in TurnInput) (string, error) {
	raw := strings.TrimSpace(in.Command)
	if raw == "" {
		return "", fmt.Errorf("%w: command is empty", model.ErrInvalidInput)
	}
	parsed := command.Parse(raw)

	var sb strings.Builder
	sb.WriteString("你是角色扮演游戏主持人。")
	sb.WriteString(b.roleInfo("玩家正在扮演角色："))
	sb.WriteString("\n\n世界设定：\n")
	sb.WriteString(chunker.Clip(b.worldBook, b.opts.WorldBookLimit))
	sb.WriteString("\n\n")
	sb.WriteString(lengthInstruction(b.opts.Length))
	sb.WriteString("\n\n要求：\n")
	writeList(&sb,
		"必须使用全中文输出",
		"必须使用第三人称视角进行长叙述",
		"详细描写场景、动作、心理、环境等",
		"严格遵循世界书设定和角色设定",
		"保持剧情连贯性",
		"根据用户指令生成相应的剧情响应",
	)

	if block := b.memoryBlock(in.Memory); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}

	if in.Located != nil && in.Located.Text != "" {
		sb.WriteString("\n\n# 玩家引用的剧情片段\n")
		sb.WriteString(in.Located.Text)
		sb.WriteString("\n请从这段剧情处继续。")
	}

	if parsed.HasDirectives {
		sb.WriteString(command.RenderDirectivePrompt(parsed.Directives))
	}

	if b.fingerprint != nil {
		sb.WriteString("\n\n")
		sb.WriteString(style.RenderPrompt(b.fingerprint, b.styleSample))
	}

	sb.WriteString("\n\n")
	sb.WriteString(directOutput)
	sb.WriteString("\n\n玩家指令：")
	if parsed.HasDirectives && parsed.Action != "" {
		sb.WriteString(parsed.Action)
	} else {
		sb.WriteString(raw)
	}
	return sb.String(), nil
}

// memoryBlock renders the working memory, dropping the oldest context lines
// and then trailing character lines until it fits the token budget.
func (b *Builder) memoryBlock(s memory.Summary) string {
	if s.Characters == "" && s.Contexts == "" {
		return ""
	}
	const header = "# 记忆（保持一致）\n"
	counter := b.opts.Counter
	budget := b.opts.MemoryBudget - counter.Count(header)

	chars := splitLines(s.Characters)
	contexts := splitLines(s.Contexts)

	charTokens := 0
	for _, l := range chars {
		charTokens += counter.Count(l)
	}
	for charTokens > budget && len(chars) > 0 {
		charTokens -= counter.Count(chars[len(chars)-1])
		chars = chars[:len(chars)-1]
	}
	contexts = TrimToBudget(counter, contexts, budget-charTokens)

	if len(chars) == 0 && len(contexts) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(header)
	if len(chars) > 0 {
		sb.WriteString("## 角色状态\n")
		sb.WriteString(strings.Join(chars, "\n"))
		sb.WriteString("\n")
	}
	if len(contexts) > 0 {
		sb.WriteString("## 近期剧情\n")
		sb.WriteString(strings.Join(contexts, "\n"))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) roleInfo(label string) string {
	info := label + b.role.Name
	if desc := strings.TrimSpace(b.role.Description); desc != "" {
		info += "\n\n角色详细描述：\n" + desc
	}
	return info
}

func lengthInstruction(mode string) string {
	if mode == model.LengthLong {
		return "回复长度控制在1000-3000字之间"
	}
	return "回复长度控制在600字以内"
}

func writeList(sb *strings.Builder, items ...string) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(sb, "%d. %s", i+1, item)
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

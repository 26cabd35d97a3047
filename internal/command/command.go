// Package command splits a raw player input line into a free-text action and
// an ordered list of weighted content directives.
//
// Input has the shape "action/directive one(60%),directive two". The part
// before the first slash is the action; the rest is a comma-separated list
// (ASCII or full-width commas) whose entries may carry a "(NN%)" share.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Directive is one weighted sub-instruction.
type Directive struct {
	Description string `json:"description"`
	Percentage  *int   `json:"percentage"`
}

// Parsed is the result of Parse.
type Parsed struct {
	Action        string      `json:"action"`
	Directives    []Directive `json:"directives"`
	HasDirectives bool        `json:"has_directives"`
}

var directivePattern = regexp.MustCompile(`([^，,]+?)(?:[(（](\d+)%[)）])?(?:，|,|$)`)

// Parse splits input at the first '/' and tokenizes the directive list.
func Parse(input string) Parsed {
	slash := strings.Index(input, "/")
	if slash < 0 {
		return Parsed{Action: strings.TrimSpace(input), Directives: []Directive{}}
	}

	action := strings.TrimSpace(input[:slash])
	tail := strings.TrimSpace(input[slash+1:])

	directives := []Directive{}
	for _, m := range directivePattern.FindAllStringSubmatch(tail, -1) {
		desc := strings.TrimSpace(m[1])
		if desc == "" {
			continue
		}
		d := Directive{Description: desc}
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if errors.Is(err, strconv.ErrRange) {
				n, err = 100, nil
			}
			if err == nil {
				n = min(n, 100)
				d.Percentage = &n
			}
		}
		directives = append(directives, d)
	}

	// Never drop directive text silently.
	if len(directives) == 0 && tail != "" {
		directives = append(directives, Directive{Description: tail})
	}

	return Parsed{
		Action:        action,
		Directives:    directives,
		HasDirectives: len(directives) > 0,
	}
}

// RenderDirectivePrompt renders the directive list as a numbered instruction
// block for the narrator. It returns "" for an empty list.
func RenderDirectivePrompt(directives []Directive) string {
	if len(directives) == 0 {
		return ""
	}

	var parts []string
	for i, d := range directives {
		line := fmt.Sprintf("%d. %s", i+1, d.Description)
		if d.Percentage != nil && *d.Percentage > 0 {
			line += fmt.Sprintf("（占%d%%的文字）", *d.Percentage)
		}
		parts = append(parts, line)
	}

	return "\n\n# 内容生成指导（重要）\n" +
		"用户希望生成的内容按照以下方向和比例分配：\n" +
		strings.Join(parts, "\n") + "\n\n" +
		"请严格按照以上指导生成内容，确保：\n" +
		"1. 每个部分的内容比例符合要求\n" +
		"2. 内容连贯自然，过渡流畅\n" +
		"3. 所有部分都要详细展开，不能简略\n" +
		"4. 保持与原始故事风格一致"
}

package prompt

// WorldBookSystem and WorldBookRequest ask the model for a fresh world book.
const (
	WorldBookSystem = "你是一个专业的世界观构建专家，擅长创造详细的虚拟世界设定。"

	WorldBookRequest = `请生成一个详细的虚拟世界背景设定（世界书）。

世界书应该包括：
1. 世界观设定：世界的类型、时代背景、地理环境、世界规则、文化背景、社会结构
2. 主要地点和场景：故事发生的主要地点，每个场景的详细描述
3. 重要角色和势力：所有重要角色的详细设定（姓名、年龄、性格、背景、身体特征等），角色之间的关系
4. 世界规则和设定：世界的运行规则、魔法/科技体系、社会制度等
5. 故事背景和时代：当前的故事状态和起点

请用中文生成详细的世界书，字数控制在2000-5000字之间。`

	// WorldBookMaxTokens caps the world book completion.
	WorldBookMaxTokens = 4000
)
